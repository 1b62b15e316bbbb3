package report

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/refis-sim/refis-sim/internal/money"
	"github.com/refis-sim/refis-sim/internal/refis"
	"github.com/refis-sim/refis-sim/internal/simulation"
)

// Data carries everything the printable report shows.
type Data struct {
	GeneratedAt  time.Time
	Entity       string
	Items        []refis.Item
	Groups       []refis.Group
	ItemEntries  []refis.Entry
	GroupEntries []refis.Entry
	Summary      []simulation.SummaryRow
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"brl": func(v decimal.Decimal) string { return money.FormatBRL(v) },
	"joinInt64": func(ids []int64) string {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.FormatInt(id, 10)
		}
		return strings.Join(parts, ", ")
	},
}).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Simulação de Renegociação</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222; }
h1 { font-size: 20px; }
h2 { font-size: 15px; margin-top: 24px; border-bottom: 1px solid #999; }
table { border-collapse: collapse; width: 100%; margin-top: 8px; }
th, td { border: 1px solid #bbb; padding: 4px 6px; text-align: left; }
th { background: #eee; }
td.num { text-align: right; }
.alert { color: #a40000; }
.meta { color: #555; }
</style>
</head>
<body>
<h1>Simulação de Renegociação de Débitos</h1>
<p class="meta">Gerado em {{.GeneratedAt.Format "02/01/2006 15:04"}}{{if .Entity}} · Contribuinte: {{.Entity}}{{end}}</p>

<h2>Débitos simulados</h2>
{{if .Items}}
<table>
<tr><th>ID</th><th>Contribuinte</th><th>Descrição</th><th>Ano</th><th>Categoria</th><th>Plano</th><th>Total atual</th><th>Desconto</th><th>Total negociado</th><th>Parcela</th><th>Aviso</th></tr>
{{range .Items}}
<tr>
<td>{{.ID}}</td><td>{{.Entity}}</td><td>{{.Description}}</td><td>{{.Year}}</td><td>{{.Category}}</td>
<td>{{.Choice}}{{if gt .Installments 1}} ({{.Installments}}x){{end}}</td>
<td class="num">{{brl .Settlement.CurrentTotal}}</td>
<td class="num">{{brl .Settlement.DiscountAmount}}</td>
<td class="num">{{brl .Settlement.SettledTotal}}</td>
<td class="num">{{brl .Settlement.InstallmentAmount}}</td>
<td class="alert">{{.Settlement.Alert}}</td>
</tr>
{{end}}
</table>
{{else}}<p>Nenhum débito simulado.</p>{{end}}

<h2>Negociações conjuntas</h2>
{{if .Groups}}
<table>
<tr><th>ID</th><th>Contribuinte</th><th>Categoria</th><th>Plano</th><th>Membros</th><th>Total atual</th><th>Total negociado</th><th>Parcela</th><th>Aviso</th></tr>
{{range .Groups}}
<tr>
<td>{{.ID}}</td><td>{{.Entity}}</td><td>{{.Category}}</td>
<td>{{.Choice}}{{if gt .Installments 1}} ({{.Installments}}x){{end}}</td>
<td>{{joinInt64 .MemberIDs}}</td>
<td class="num">{{brl .Settlement.CurrentTotal}}</td>
<td class="num">{{brl .Settlement.SettledTotal}}</td>
<td class="num">{{brl .Settlement.InstallmentAmount}}</td>
<td class="alert">{{.Settlement.Alert}}</td>
</tr>
{{end}}
</table>
{{else}}<p>Nenhuma negociação conjunta.</p>{{end}}

<h2>Resumo por contribuinte</h2>
{{if .Summary}}
<table>
<tr><th>Contribuinte</th><th>Categoria</th><th>Débitos</th><th>Total atual</th><th>Desconto</th><th>Total negociado</th></tr>
{{range .Summary}}
<tr>
<td>{{.Entity}}</td><td>{{.Category}}</td><td>{{.Items}}</td>
<td class="num">{{brl .CurrentTotal}}</td>
<td class="num">{{brl .DiscountAmount}}</td>
<td class="num">{{brl .SettledTotal}}</td>
</tr>
{{end}}
</table>
{{else}}<p>Sem dados para o resumo.</p>{{end}}

<h2>Comparativo à vista ou parcelado</h2>
{{if .ItemEntries}}
<table>
<tr><th>Débito</th><th>Ano</th><th>À vista</th><th>Parcelado</th><th>Melhor opção</th></tr>
{{range .ItemEntries}}
<tr>
<td>{{.Description}}</td><td>{{.Year}}</td>
<td class="num">{{if .LumpSum}}{{brl .LumpSum.SettledTotal}}{{end}}</td>
<td class="num">{{if .Installment}}{{brl .Installment.SettledTotal}} ({{.Installment.Installments}}x){{end}}</td>
<td>{{.BestOption}}</td>
</tr>
{{end}}
</table>
{{else}}<p>Sem simulações comparáveis.</p>{{end}}

{{if .GroupEntries}}
<h2>Comparativo de negociações conjuntas</h2>
<table>
<tr><th>Contribuinte</th><th>Categoria</th><th>À vista</th><th>Parcelado</th><th>Melhor opção</th></tr>
{{range .GroupEntries}}
<tr>
<td>{{.Entity}}</td><td>{{.Category}}</td>
<td class="num">{{if .LumpSum}}{{brl .LumpSum.SettledTotal}}{{end}}</td>
<td class="num">{{if .Installment}}{{brl .Installment.SettledTotal}} ({{.Installment.Installments}}x){{end}}</td>
<td>{{.BestOption}}</td>
</tr>
{{end}}
</table>
{{end}}
</body>
</html>`))

// BuildHTML renders the report data into a self-contained HTML page.
func BuildHTML(data Data) (string, error) {
	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
