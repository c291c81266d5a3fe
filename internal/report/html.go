package report

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"tailscale.com/tsweb"

	"github.com/banshee-data/skittles/internal/db"
)

// echartsAssetsPrefix serves the echarts javascript from the public CDN.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// RenderHTML writes an interactive page with the joint angle over time and
// the ball trajectory.
func RenderHTML(w io.Writer, s Series) error {
	if len(s.Joint) == 0 {
		return ErrNoData
	}

	angle := make([]opts.LineData, 0, len(s.Joint))
	for _, e := range s.Joint {
		angle = append(angle, opts.LineData{Value: []interface{}{s.seconds(e), e.Angle}})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Skittles trial " + s.TrialID, Width: "900px", Height: "420px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Joint Angle", Subtitle: fmt.Sprintf("trial=%s samples=%d outcome=%s", s.TrialID, len(angle), s.outcome())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "angle (rad)", NameLocation: "middle", NameGap: 40}),
	)
	line.AddSeries("angle", angle)

	page := components.NewPage()
	page.PageTitle = "Skittles trial " + s.TrialID
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(line)

	if len(s.Trajectory) > 0 {
		pts := make([]opts.ScatterData, 0, len(s.Trajectory))
		for _, p := range s.Trajectory {
			pts = append(pts, opts.ScatterData{Value: []interface{}{p.Position.X, p.Position.Y, p.Elapsed.Seconds()}})
		}
		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
			charts.WithTitleOpts(opts.Title{Title: "Ball Trajectory", Subtitle: fmt.Sprintf("points=%d", len(pts))}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "X (px)", NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Y (px)", NameLocation: "middle", NameGap: 30}),
		)
		scatter.AddSeries("ball", pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
		page.AddCharts(scatter)
	}

	return page.Render(w)
}

// AttachAdminRoutes serves stored trials as charts at /debug/trial-chart?id=.
func AttachAdminRoutes(mux *http.ServeMux, store *db.DB) {
	debug := tsweb.Debugger(mux)
	debug.HandleSilentFunc("trial-chart", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		s, err := Load(store, id)
		if errors.Is(err, db.ErrTrialNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to load trial: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := RenderHTML(w, s); err != nil {
			http.Error(w, fmt.Sprintf("render error: %v", err), http.StatusInternalServerError)
		}
	})
}

// Load reads a stored trial back into a Series.
func Load(store *db.DB, id string) (Series, error) {
	t, err := store.Trial(id)
	if err != nil {
		return Series{}, err
	}
	history, err := store.JointHistory(id)
	if err != nil {
		return Series{}, err
	}
	trajectory, err := store.Trajectory(id)
	if err != nil {
		return Series{}, err
	}
	return Series{
		TrialID:    t.ID,
		Start:      t.StartedAt,
		Joint:      history,
		Trajectory: trajectory,
		Success:    t.Success,
	}, nil
}
