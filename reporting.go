package perfgraph

import (
	"io"

	"github.com/perfgraph/perfgraph/component"
	"github.com/perfgraph/perfgraph/report"
)

// WriteReport renders the merged graph for one kind as an indented text
// table. Most callers finalize first; reporting before Finalize shows only
// graphs collected through Thread.Close.
func (m *Manager) WriteReport(w io.Writer, kind component.Kind, opts report.Options) error {
	g := m.Global(kind)
	if g == nil {
		return component.ErrKindMismatch
	}
	return report.Write(w, g, opts)
}

// WriteReports renders every registered kind in order.
func (m *Manager) WriteReports(w io.Writer, opts report.Options) error {
	for i, k := range m.kinds {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := m.WriteReport(w, k, opts); err != nil {
			return err
		}
	}
	return nil
}
