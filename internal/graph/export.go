package graph

import "github.com/ianremillard/ccmux/internal/ccmux"

// Export returns a value-copy snapshot of every session, window, and pane
// currently in the graph, in the same shape Attach hands a client — but
// without subscribing anyone. internal/store uses this to build a
// checkpoint without needing a fake client identity.
func (g *Graph) Export() []ccmux.AttachSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]ccmux.AttachSnapshot, 0, len(g.sessions))
	for _, s := range g.sessions {
		windows := make([]ccmux.WindowInfo, 0, len(s.windowOrder))
		var panes []ccmux.PaneInfo
		for _, wid := range s.windowOrder {
			w := g.windows[wid]
			windows = append(windows, w.snapshot())
			for _, pid := range w.paneOrder {
				panes = append(panes, g.panes[pid].snapshot())
			}
		}
		out = append(out, ccmux.AttachSnapshot{Session: s.snapshot(), Windows: windows, Panes: panes})
	}
	return out
}
