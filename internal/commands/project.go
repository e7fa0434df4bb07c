package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/workspace"
)

const projectLogPrefix = "commands:project"

// ProjectRootPayload is the payload of projectRoot.
type ProjectRootPayload struct {
	File string `json:"file"`
}

// ProjectRootResult is the reply value of projectRoot.
type ProjectRootResult struct {
	Root string `json:"root"`
	Name string `json:"name"`
}

// projectRoot resolves the project root of a file. Failures become error
// results, which the correlator surfaces once whether or not a reply is expected.
func (c *Commands) projectRoot(ctx context.Context, ch bridge.Channel, env bridge.Envelope) bridge.Result {
	return bridge.Typed(func(_ context.Context, _ bridge.Channel, p ProjectRootPayload) bridge.Result {
		folders, err := c.deps.Folders.Folders()
		if err != nil {
			slog.Error(fmt.Sprintf("%s - workspace folders unavailable: %v", projectLogPrefix, err))
			return bridge.Fail(500, "Workspace folders are unavailable")
		}

		root, err := c.deps.Resolver.Lookup(p.File, folders)
		if errors.Is(err, workspace.ErrNoActiveFile) {
			return bridge.Fail(400, "%s", err.Error())
		}
		if err != nil {
			return bridge.Fail(404, "%s", err.Error())
		}
		return bridge.OK(ProjectRootResult{Root: root, Name: workspace.ProjectName(root)})
	})(ctx, ch, env)
}
