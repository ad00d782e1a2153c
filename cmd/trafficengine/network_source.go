package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/paulmach/osm"

	"github.com/laurentg/traffic-engine/network"
	"github.com/laurentg/traffic-engine/tripline"
)

// wayPayload is the wire shape a network source serves: a pre-extracted
// OSM way with its full node list, ready for tripline.Build. Parsing an
// actual .osm.pbf/.xml extract into this shape is an external
// collaborator's job (spec.md's non-goals exclude OSM tag parsing
// itself); this fetches an already-extracted JSON document.
type wayPayload struct {
	ID   int64             `json:"id"`
	Tags map[string]string `json:"tags"`
	Nodes []struct {
		ID  int64   `json:"id"`
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"nodes"`
}

func fetchNetwork(ctx context.Context, sourceURL string) (*network.MemoryNetwork, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch network: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("network source HTTP %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var ways []wayPayload
	if err := json.Unmarshal(body, &ways); err != nil {
		return nil, fmt.Errorf("parse network JSON: %w", err)
	}
	if len(ways) == 0 {
		return nil, fmt.Errorf("network source returned no ways")
	}

	net := network.NewMemoryNetwork()
	for _, w := range ways {
		nodeIDs := make([]network.NodeID, 0, len(w.Nodes))
		for _, n := range w.Nodes {
			id := network.NodeID(n.ID)
			net.AddNode(id, n.Lon, n.Lat)
			nodeIDs = append(nodeIDs, id)
		}

		tags := make(network.Tags, 0, len(w.Tags))
		for k, v := range w.Tags {
			tags = append(tags, osm.Tag{Key: k, Value: v})
		}

		net.AddWay(&network.Way{
			ID:    network.WayID(w.ID),
			Nodes: nodeIDs,
			Tags:  tags,
		})
	}

	return net, nil
}

// runRefreshNetwork fetches the current network extract, rebuilds the
// tripline set from scratch, and swaps it into store. set_streets is
// one-shot and idempotency isn't required (spec.md §6), so this always
// builds fresh rather than trying to diff against the previous network;
// any in-flight per-vehicle pending crossings keyed to the old
// TripLine pointers are dropped along with the old engine.
func runRefreshNetwork(ctx context.Context, sourceURL string, store *engineStore) error {
	start := time.Now()
	log.Println("[network] Refreshing road network and rebuilding triplines...")

	net, err := fetchNetwork(ctx, sourceURL)
	if err != nil {
		return fmt.Errorf("fetch network: %w", err)
	}

	streets := tripline.Build(net)
	store.Swap(net, streets)

	log.Printf("[network] Built %d triplines over %d ways in %s",
		len(streets.TripLines()), len(net.Ways()), time.Since(start))
	return nil
}
