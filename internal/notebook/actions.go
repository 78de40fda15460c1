package notebook

import (
	"context"
	"fmt"
	"sort"

	"github.com/morozRed/notegraph/internal/edges"
	"github.com/morozRed/notegraph/internal/errs"
)

// ActionRequest carries the arguments of a dispatched action. Each action
// reads only the fields it needs.
type ActionRequest struct {
	ID      string `json:"id,omitempty"`
	Path    string `json:"path,omitempty"`
	NewPath string `json:"newPath,omitempty"`
	Content string `json:"content,omitempty"`
}

// ActionResult is the outcome of a dispatched action.
type ActionResult struct {
	Action    string        `json:"action"`
	Applied   bool          `json:"applied"`
	Scan      *ScanReport   `json:"scan,omitempty"`
	Synthesis *edges.Report `json:"synthesis,omitempty"`
}

// Action is one entry of the action table.
type Action func(ctx context.Context, s *Service, req ActionRequest) (ActionResult, error)

// Actions maps action ids to their handlers. Dispatch looks names up here
// and nowhere else.
var Actions = map[string]Action{
	"collapse": func(_ context.Context, s *Service, req ActionRequest) (ActionResult, error) {
		return ActionResult{Applied: s.Collapse(req.ID)}, nil
	},
	"expand": func(_ context.Context, s *Service, req ActionRequest) (ActionResult, error) {
		return ActionResult{Applied: s.Expand(req.ID)}, nil
	},
	"rescan": func(ctx context.Context, s *Service, _ ActionRequest) (ActionResult, error) {
		report, err := s.Rescan(ctx)
		if err != nil {
			return ActionResult{}, err
		}
		return ActionResult{Applied: true, Scan: &report}, nil
	},
	"relink": func(ctx context.Context, s *Service, _ ActionRequest) (ActionResult, error) {
		report, err := s.Relink(ctx)
		if err != nil {
			return ActionResult{}, err
		}
		return ActionResult{Applied: true, Synthesis: &report}, nil
	},
	"create-file": func(ctx context.Context, s *Service, req ActionRequest) (ActionResult, error) {
		if err := s.CreateFile(ctx, req.Path, req.Content); err != nil {
			return ActionResult{}, err
		}
		return ActionResult{Applied: true}, nil
	},
	"create-directory": func(ctx context.Context, s *Service, req ActionRequest) (ActionResult, error) {
		if err := s.CreateDirectory(ctx, req.Path); err != nil {
			return ActionResult{}, err
		}
		return ActionResult{Applied: true}, nil
	},
	"rename": func(ctx context.Context, s *Service, req ActionRequest) (ActionResult, error) {
		if err := s.RenamePath(ctx, req.Path, req.NewPath); err != nil {
			return ActionResult{}, err
		}
		return ActionResult{Applied: true}, nil
	},
	"delete": func(ctx context.Context, s *Service, req ActionRequest) (ActionResult, error) {
		if err := s.DeletePath(ctx, req.Path); err != nil {
			return ActionResult{}, err
		}
		return ActionResult{Applied: true}, nil
	},
}

// ActionNames returns the registered action ids in order.
func ActionNames() []string {
	names := make([]string, 0, len(Actions))
	for name := range Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the action registered under name.
func (s *Service) Dispatch(ctx context.Context, name string, req ActionRequest) (ActionResult, error) {
	action, ok := Actions[name]
	if !ok {
		actionsTotal.WithLabelValues("unknown", "rejected").Inc()
		return ActionResult{}, fmt.Errorf("%w: action %q", errs.ErrNotFound, name)
	}

	result, err := action(ctx, s, req)
	if err != nil {
		actionsTotal.WithLabelValues(name, "failed").Inc()
		s.logger.Debug("action failed", "action", name, "error", err)
		return ActionResult{}, err
	}
	result.Action = name
	actionsTotal.WithLabelValues(name, "ok").Inc()
	return result, nil
}
