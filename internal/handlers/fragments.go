package handlers

import (
	"html/template"
	"strconv"
	"strings"
)

const noDataMessage = "표시할 데이터가 없습니다."

var fragmentFuncs = template.FuncMap{
	"pct": func(v float64) string { return formatFloat(v, 1) + "%" },
	"f2":  func(v float64) string { return formatFloat(v, 2) },
}

var noDataTemplate = template.Must(template.New("noData").Parse(
	`<div id="{{.ID}}" class="no-data">{{.Message}}</div>`))

var summaryTemplate = template.Must(template.New("summary").Funcs(fragmentFuncs).Parse(`
<div id="summary-content">
<div class="metric-grid">
<div class="metric"><span class="label">총 공구방 수</span><strong>{{.TotalBoards}}개</strong></div>
<div class="metric"><span class="label">총 참여자 수</span><strong>{{.TotalParticipants}}명</strong></div>
<div class="metric"><span class="label">총 리더 수</span><strong>{{.TotalLeaders}}명</strong></div>
<div class="metric"><span class="label">공구 성공률</span><strong>{{pct .SuccessRate}}</strong></div>
<div class="metric"><span class="label">거래 완료율</span><strong>{{pct .CompletionRate}}</strong></div>
<div class="metric"><span class="label">모집 충족률</span><strong>{{pct .ParticipationRate}}</strong></div>
</div>
</div>`))

var statusTemplate = template.Must(template.New("status").Funcs(fragmentFuncs).Parse(`
<div id="status-trend-content">
<p class="caption">마감 준수율 {{pct .DeadlineHitRate}} ({{.ClosedBoardCount}}건 기준)</p>
<table class="modern-table">
<thead><tr><th>상태</th><th>개수</th></tr></thead>
<tbody>
{{range .Distribution}}<tr><td><span class="status-badge">{{.Label}}</span></td><td>{{.Count}}</td></tr>
{{end}}</tbody>
</table>
</div>`))

var flowTemplate = template.Must(template.New("flow").Parse(`
<div id="transaction-flow-content">
<table class="modern-table">
<thead><tr><th>월</th><th>개설</th></tr></thead>
<tbody>
{{range .MonthlyCreation}}<tr><td>{{.Month}}</td><td>{{.Count}}</td></tr>
{{end}}</tbody>
</table>
</div>`))

var leadersTemplate = template.Must(template.New("leaders").Funcs(fragmentFuncs).Parse(`
<div id="leaders-content">
<div class="metric-grid">
<div class="metric"><span class="label">리더 수</span><strong>{{.UniqueLeaders}}명</strong></div>
<div class="metric"><span class="label">평균 개설 수</span><strong>{{f2 .AverageBoards}}회</strong></div>
<div class="metric"><span class="label">재참여율</span><strong>{{pct .RepeatRate}}</strong></div>
<div class="metric"><span class="label">최대 개설 수</span><strong>{{.MaxBoards}}회</strong></div>
</div>
{{if .TopCategories}}<table class="modern-table">
<thead><tr><th>카테고리</th><th>공구 게시판 수</th></tr></thead>
<tbody>
{{range .TopCategories}}<tr><td><span class="category-badge">{{.Label}}</span></td><td>{{.Count}}</td></tr>
{{end}}</tbody>
</table>{{end}}
<p class="caption">리더 판정 규칙: {{.LeaderClassifier}}</p>
</div>`))

var regionsTemplate = template.Must(template.New("regions").Funcs(fragmentFuncs).Parse(`
<div id="regions-content">
<table class="modern-table">
<thead><tr><th>지역</th><th>공구방 수</th><th>참여자 수</th><th>리더 수</th><th>참여자당 공구방</th></tr></thead>
<tbody>
{{range .Regions}}<tr><td>{{.Region}}</td><td>{{.Boards}}</td><td>{{.Participants}}</td><td>{{.Leaders}}</td><td>{{f2 .BoardsPerParticipant}}</td></tr>
{{end}}</tbody>
</table>
</div>`))

var categoriesTemplate = template.Must(template.New("categories").Funcs(fragmentFuncs).Parse(`
<div id="categories-content">
<div class="metric-grid">
<div class="metric"><span class="label">평균 평점</span><strong>{{f2 .Rating.Mean}}</strong></div>
<div class="metric"><span class="label">중앙값</span><strong>{{f2 .Rating.Median}}</strong></div>
<div class="metric"><span class="label">최고 평점</span><strong>{{f2 .Rating.Max}}</strong></div>
<div class="metric"><span class="label">최저 평점</span><strong>{{f2 .Rating.Min}}</strong></div>
</div>
{{if .TopRated}}<table class="modern-table">
<thead><tr><th>카테고리</th><th>평균 평점</th><th>건수</th></tr></thead>
<tbody>
{{range .TopRated}}<tr><td>{{.Name}}</td><td>{{f2 .MeanRating}}</td><td>{{.Count}}</td></tr>
{{end}}</tbody>
</table>{{end}}
</div>`))

var favoritesTemplate = template.Must(template.New("favorites").Parse(`
<div id="favorites-content">
<p class="caption">찜 {{.TotalFavorites}}건 · 사용자 {{.UniqueUsers}}명</p>
<table class="modern-table">
<thead><tr><th>상품</th><th>카테고리</th><th>찜 수</th></tr></thead>
<tbody>
{{range .TopProducts}}<tr><td>{{.Name}}</td><td><span class="category-badge">{{.Category}}</span></td><td>{{.Count}}</td></tr>
{{end}}</tbody>
</table>
</div>`))

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderNoData(id string) string {
	html, err := render(noDataTemplate, map[string]string{"ID": id, "Message": noDataMessage})
	if err != nil {
		return `<div id="` + template.HTMLEscapeString(id) + `" class="no-data">` + noDataMessage + `</div>`
	}
	return html
}
