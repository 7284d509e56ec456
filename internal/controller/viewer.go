package controller

import (
	"context"

	"schedwatch/internal/eventbus"
	logx "schedwatch/pkg/logx"
)

// RequestViewerOpen asks the viewer loop to open a viewer. Repeated requests
// before the loop observes them collapse into one.
func (c *Controller) RequestViewerOpen() {
	c.mu.Lock()
	c.viewerRequested = true
	c.mu.Unlock()

	select {
	case c.viewerCh <- struct{}{}:
	default:
	}
}

// ConsumeViewerOpen acknowledges a pending request. It reports false when
// there is none; otherwise the viewer counts as open until CloseViewer.
func (c *Controller) ConsumeViewerOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.viewerRequested {
		return false
	}
	c.viewerRequested = false
	c.viewerOpen = true
	return true
}

func (c *Controller) CloseViewer() {
	c.mu.Lock()
	c.viewerOpen = false
	c.mu.Unlock()
}

func (c *Controller) ViewerOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewerOpen
}

// RunViewer waits for viewer requests and opens each with a fresh snapshot.
// Open blocks for as long as the viewer is shown.
func (c *Controller) RunViewer(ctx context.Context, opener ViewerOpener) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.shutdown:
			return nil
		case <-c.viewerCh:
		}
		if !c.ConsumeViewerOpen() {
			continue
		}

		snap := c.Snapshot()
		if snap == nil {
			c.log.Warn("viewer requested before a schedule was loaded")
			c.CloseViewer()
			continue
		}
		eventbus.Publish(c.bus, eventbus.ViewerOpened, nil, nil)
		if err := opener.Open(ctx, c.title, snap); err != nil {
			c.log.Warn("viewer failed", logx.Err(err))
		}
		c.CloseViewer()
	}
}
