package coordination

import (
	"encoding/json"
	"net/url"

	"github.com/appltini/app-mesh/pkg/types"
)

// TaskReader fetches declared task descriptors from cluster/tasks
// (spec.md §6 "cluster/tasks/<name>", written by admin, read by
// leader and nodes).
type TaskReader struct {
	client *Client
}

// NewTaskReader constructs a TaskReader.
func NewTaskReader(client *Client) *TaskReader {
	return &TaskReader{client: client}
}

// ListTasks fetches every declared task, keyed by name.
func (tr *TaskReader) ListTasks() (map[string]*types.Task, error) {
	query := url.Values{}
	query.Set("recurse", "true")

	status, body, _, err := tr.client.Get("appmesh/cluster/tasks", query)
	if err != nil {
		return nil, transientf("tasks.ListTasks", "list tasks: %w", err)
	}
	if status == 404 {
		return map[string]*types.Task{}, nil
	}
	if !Success(status) {
		return nil, transientf("tasks.ListTasks", "list tasks: status=%d", status)
	}

	return decodeKVEntries(body, func(key string, value []byte) (*types.Task, error) {
		var task types.Task
		if err := json.Unmarshal(value, &task); err != nil {
			return nil, err
		}
		task.Name = key
		return &task, nil
	})
}
