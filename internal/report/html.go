package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const reportCSS = `body{font-family:-apple-system,"Segoe UI",Helvetica,Arial,sans-serif;color:#1c1917;background:#fff;margin:0;padding:0.6rem;}
.report{max-width:1100px;margin:0 auto;}
h1{font-size:1.6rem;border-bottom:3px solid #0f766e;padding-bottom:0.3rem;}
h2{font-size:1.2rem;margin-top:1.6rem;color:#0f766e;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
blockquote{background:#fef3c7;border-left:4px solid #f59e0b;margin:0.6rem 0;padding:0.3rem 0.8rem;}
table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.78rem;margin:0.4rem 0 1rem;}
th,td{border:1px solid #a8a29e;padding:0.3rem 0.45rem;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
@media print{@page{size:auto;margin:12mm;} body{padding:0;} .report{max-width:none;}}`

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts a markdown report into a standalone HTML document.
func RenderHTML(md, title string) (string, error) {
	var content strings.Builder
	if err := markdown.Convert([]byte(md), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	body := applyPrintLayoutHooks(content.String())
	if strings.TrimSpace(title) == "" {
		title = "NAC TCO Report"
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + reportCSS + "</style></head><body><div class='report'>" + body + "</div></body></html>", nil
}

// applyPrintLayoutHooks starts the methodology section on a fresh page.
func applyPrintLayoutHooks(contentHTML string) string {
	return strings.Replace(contentHTML, "<h2>How This Report Works</h2>", `<h2 data-page-break-before="true">How This Report Works</h2>`, 1)
}
