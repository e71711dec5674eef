package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

type tab struct {
	Title     string
	ElementID string
	Stream    string
}

var tabs = []tab{
	{"요약", "summary-content", "/sse/summary"},
	{"공구 상태", "status-trend-content", "/sse/status-trend"},
	{"거래 흐름", "transaction-flow-content", "/sse/transaction-flow"},
	{"리더 활동", "leaders-content", "/sse/leaders"},
	{"지역별 현황", "regions-content", "/sse/regions"},
	{"카테고리 인기", "categories-content", "/sse/categories"},
	{"찜 분석", "favorites-content", "/sse/favorites"},
}

const head = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>공동구매 운영 대시보드</title>
<script type="module" src="` + datastarScript + `"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#1f2430}
header{display:flex;justify-content:space-between;align-items:center;padding:16px 24px;background:#fff;border-bottom:1px solid #e3e6eb}
main{display:grid;gap:16px;padding:24px}
section{background:#fff;border-radius:8px;padding:16px;box-shadow:0 1px 2px rgba(0,0,0,.06)}
.metric-grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(160px,1fr));gap:12px}
.metric .label{display:block;font-size:12px;color:#6b7280}
.modern-table{width:100%;border-collapse:collapse;margin-top:12px}
.modern-table th,.modern-table td{padding:6px 8px;border-bottom:1px solid #eef0f3;text-align:left}
.status-badge,.category-badge{padding:2px 8px;border-radius:10px;background:#eef2ff}
.no-data,.loading{color:#9ca3af}
.caption{font-size:12px;color:#6b7280}
</style>
</head>
<body data-signals="{summaryData: {}, statusTrendData: {}, transactionFlowData: {}, leadersData: {}, regionsData: {}, categoriesData: {}, favoritesData: {}}">
<header>
<h1>공동구매 운영 대시보드</h1>
<button type="button" onclick="fetch('/api/session/refresh',{method:'POST',credentials:'same-origin'}).then(()=>location.reload())">데이터 새로고침</button>
</header>
<main>
`

const foot = `</main>
</body>
</html>
`

func writeTab(b *strings.Builder, t tab) {
	b.WriteString(`<section data-on-load="@get('`)
	b.WriteString(templ.EscapeString(t.Stream))
	b.WriteString(`')">`)
	b.WriteString("\n<h2>")
	b.WriteString(templ.EscapeString(t.Title))
	b.WriteString("</h2>\n")
	b.WriteString(`<div id="`)
	b.WriteString(templ.EscapeString(t.ElementID))
	b.WriteString(`" class="loading">불러오는 중...</div>`)
	b.WriteString("\n</section>\n")
}

// Dashboard is the single page shell. Each section fills itself from its
// SSE stream once loaded.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var b strings.Builder
		b.WriteString(head)
		for _, t := range tabs {
			writeTab(&b, t)
		}
		b.WriteString(foot)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
