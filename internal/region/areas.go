package region

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rsilvagit/go-vacancies/internal/model"
)

// HTTPGetter is the part of httpclient.Client the area client needs.
type HTTPGetter interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
}

// AreaNode mirrors one node of the /areas/{id} response.
type AreaNode struct {
	ID       string     `json:"id"`
	ParentID string     `json:"parent_id"`
	Name     string     `json:"name"`
	Areas    []AreaNode `json:"areas"`
}

// AreaClient reads the external region hierarchy.
type AreaClient struct {
	client  HTTPGetter
	baseURL string
}

func NewAreaClient(client HTTPGetter, baseURL string) *AreaClient {
	return &AreaClient{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Tree fetches the hierarchy rooted at rootID.
func (a *AreaClient) Tree(ctx context.Context, rootID string) (AreaNode, error) {
	resp, err := a.client.Get(ctx, a.baseURL+"/areas/"+rootID)
	if err != nil {
		return AreaNode{}, fmt.Errorf("region: fetching area %s: %w", rootID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return AreaNode{}, fmt.Errorf("region: area %s: unexpected status %d", rootID, resp.StatusCode)
	}

	var root AreaNode
	if err := json.NewDecoder(resp.Body).Decode(&root); err != nil {
		return AreaNode{}, fmt.Errorf("region: decoding area %s: %w", rootID, err)
	}
	return root, nil
}

// Flatten lists every descendant of root depth-first, excluding root itself.
// Duplicate ids are reported once.
func Flatten(root AreaNode) []model.Area {
	var out []model.Area
	seen := map[string]bool{root.ID: true}

	var walk func(n AreaNode)
	walk = func(n AreaNode) {
		for _, child := range n.Areas {
			if !seen[child.ID] {
				seen[child.ID] = true
				out = append(out, model.Area{ID: child.ID, Name: child.Name, ParentID: n.ID})
			}
			walk(child)
		}
	}
	walk(root)
	return out
}

// SubRegionIDs returns the ids of a flattened area list, in order.
func SubRegionIDs(areas []model.Area) []string {
	ids := make([]string, len(areas))
	for i, a := range areas {
		ids[i] = a.ID
	}
	return ids
}
