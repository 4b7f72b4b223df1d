package server

import (
	"html/template"
	"net/http"
)

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>serptrack</title>
<style>
  body { font-family: -apple-system, system-ui, sans-serif; margin: 2rem; color: #1a1a1a; }
  h1 { font-size: 1.4rem; }
  table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
  th, td { text-align: left; padding: 0.5rem 0.75rem; border-bottom: 1px solid #e0e0e0; font-size: 0.9rem; }
  th { color: #666; font-weight: 600; }
  .tier { font-weight: 600; padding: 0.1rem 0.4rem; border-radius: 3px; }
  .tier-E1 { background: #e6f4ea; color: #137333; }
  .tier-E2 { background: #fef7e0; color: #b06000; }
  .tier-E3 { background: #fce8e6; color: #c5221f; }
  .conf-high { color: #137333; }
  .conf-medium { color: #b06000; }
  .conf-low { color: #999; }
  .reason { color: #666; max-width: 28rem; }
  .empty { color: #999; margin-top: 2rem; }
</style>
</head>
<body>
<h1>serptrack &mdash; {{.UserID}}</h1>
{{if .Experiments}}
<table>
  <tr>
    <th>Page</th><th>Keyword</th><th>Status</th><th>Days</th>
    <th>Position</th><th>Impr.</th><th>Clicks</th>
    <th>Tier</th><th>Recommendation</th><th>Why</th>
  </tr>
  {{range .Experiments}}
  <tr>
    <td>{{.PageURL}}</td>
    <td>{{.CurrentKeyword}}</td>
    <td>{{.Status}}</td>
    <td>{{.Advice.DaysTracked}}</td>
    <td>{{if .PostStats}}{{printf "%.1f" .PostStats.Position}}{{else}}&mdash;{{end}}</td>
    <td>{{if .PostStats}}{{.PostStats.Impressions}}{{else}}&mdash;{{end}}</td>
    <td>{{if .PostStats}}{{.PostStats.Clicks}}{{else}}&mdash;{{end}}</td>
    <td><span class="tier tier-{{.Advice.Tier.Level}}">{{.Advice.Tier.Level}}</span></td>
    <td class="conf-{{.Advice.Recommendation.Confidence}}">{{.Advice.Recommendation.Action}} ({{.Advice.Recommendation.Confidence}})</td>
    <td class="reason">{{.Advice.Recommendation.Reason}}</td>
  </tr>
  {{end}}
</table>
{{else}}
<p class="empty">No experiments yet. Start one with: serptrack implement &lt;page&gt; &lt;keyword&gt;</p>
{{end}}
</body>
</html>`

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = "default"
	}

	exps, err := s.store.ListExperiments(r.Context(), userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := struct {
		UserID      string
		Experiments []ExperimentResponse
	}{UserID: userID}

	for _, exp := range exps {
		data.Experiments = append(data.Experiments, s.experimentResponse(exp))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
