package pages

import (
	"net/url"

	"github.com/a-h/templ"

	"herbarium/internal/views/components"
	"herbarium/internal/views/layout"
	"herbarium/models"
)

// MyContributions lists the signed-in user's submissions, newest first.
func MyContributions(page layout.Page, receipts []models.ContributionReceipt) templ.Component {
	return layout.Layout(page, components.Render(func(w *components.Writer) {
		w.Raw("<section class=\"my-contributions\"><h1>Your contributions</h1>")
		if len(receipts) == 0 {
			w.Component(components.EmptyState("You haven't submitted any contributions yet."))
			w.Raw("</section>")
			return
		}
		w.Raw("<p>Submissions stay pending until a moderator reviews them on the CMS.</p>")
		w.Raw("<table><thead><tr><th>Formula</th><th>Type</th><th>Summary</th><th>Submitted</th><th>Status</th></tr></thead><tbody>")
		for _, receipt := range receipts {
			w.Raw("<tr><td><a")
			w.Attr("href", "/formulas/"+url.PathEscape(receipt.FormulaID))
			w.Raw(">")
			w.Text(DefaultDash(receipt.FormulaTitle))
			w.Raw("</a></td><td>")
			w.Text(ContributionTypeLabel(receipt.Type))
			w.Raw("</td><td>")
			w.Text(DefaultDash(receipt.Summary))
			w.Raw("</td><td>")
			w.Text(formatDate(receipt.SubmittedAt))
			w.Raw("</td><td><span")
			w.Attr("class", "status status--"+receipt.Status)
			w.Raw(">")
			w.Text(receipt.Status)
			w.Raw("</span></td></tr>")
		}
		w.Raw("</tbody></table></section>")
	}))
}
