package pages

import (
	"fmt"
	"net/url"

	"github.com/a-h/templ"

	"herbarium/internal/contribution"
	"herbarium/internal/herbal"
	"herbarium/internal/views/components"
	"herbarium/internal/views/layout"
	"herbarium/models"
)

// ContributionForm is the state of the contribution form between requests.
type ContributionForm struct {
	Mode    string
	Fields  contribution.Fields
	Errors  contribution.Errors
	Message string
}

// FormulaView is everything the formula page needs. A nil Breakdown means
// the formula could not be loaded and LoadError explains why.
type FormulaView struct {
	FormulaID          string
	Breakdown          *herbal.Breakdown
	LoadError          string
	Contributions      []contribution.Contribution
	ContributionsError string
	Pending            []models.ContributionReceipt
	Form               ContributionForm
	SignedIn           bool
}

// FormulaDetail renders the formula page.
func FormulaDetail(page layout.Page, view FormulaView) templ.Component {
	return layout.Layout(page, components.Render(func(w *components.Writer) {
		w.Raw("<article class=\"formula\">")
		if view.Breakdown == nil {
			w.Raw("<h1>Formula</h1>")
			w.Component(components.EmptyState(DefaultDash(view.LoadError)))
			w.Raw("</article>")
			return
		}

		formula := view.Breakdown.Formula
		w.Raw("<header><h1>")
		w.Text(formula.Title)
		w.Raw("</h1>")
		if formula.Summary != "" {
			w.Raw("<p class=\"formula__summary\">")
			w.Text(formula.Summary)
			w.Raw("</p>")
		}
		if formula.TotalWeight > 0 {
			w.Raw("<p class=\"formula__total\">Total weight: ")
			w.Text(herbal.FormatQuantity(formula.TotalWeight, formula.TotalWeightUnit))
			w.Raw("</p>")
		}
		w.Raw("</header>")

		w.Component(IngredientBreakdown(*view.Breakdown))

		if len(formula.Conditions) > 0 {
			w.Raw("<section class=\"formula__conditions\"><h2>Conditions</h2><ul>")
			for _, condition := range formula.Conditions {
				w.Raw("<li><a")
				w.Attr("href", "/conditions/"+url.PathEscape(condition.ID))
				w.Raw(">")
				w.Text(DefaultDash(condition.Title))
				w.Raw("</a></li>")
			}
			w.Raw("</ul></section>")
		}

		w.Raw("<section class=\"formula__contributions\"><h2>Community contributions</h2>")
		w.Component(ContributionList(view.Contributions, view.ContributionsError))
		if len(view.Pending) > 0 {
			w.Component(PendingReceipts(view.Pending))
		}
		w.Component(ContributionFormPartial(view.FormulaID, view.Form, view.SignedIn))
		w.Raw("</section></article>")
	}))
}

// IngredientBreakdown renders the ingredients grouped by role, or as a flat
// list when no ingredient carries a role.
func IngredientBreakdown(breakdown herbal.Breakdown) templ.Component {
	return components.Render(func(w *components.Writer) {
		w.Raw("<section class=\"formula__ingredients\"><h2>Ingredients</h2>")
		for _, warning := range breakdown.Warnings {
			w.Raw("<p class=\"formula__warning\" role=\"note\">")
			w.Text(warning)
			w.Raw("</p>")
		}
		if len(breakdown.Formula.Ingredients) == 0 {
			w.Component(components.EmptyState("No ingredients are listed for this formula yet."))
			w.Raw("</section>")
			return
		}

		if breakdown.Grouped {
			for _, group := range breakdown.Groups.NonEmpty() {
				w.Raw("<div")
				w.Attr("class", "role-group")
				w.Attr("data-role", roleKey(group.Role))
				w.Raw("><h3>")
				w.Component(components.RoleBadge(group.Role))
				if !group.Role.Assigned() {
					w.Text(group.Label)
				}
				w.Raw("</h3>")
				ingredientTable(w, breakdown, group.Ingredients)
				w.Raw("</div>")
			}
		} else {
			ingredientTable(w, breakdown, breakdown.Formula.Ingredients)
		}
		w.Raw("</section>")
	})
}

func roleKey(role herbal.Role) string {
	if role.Assigned() {
		return string(role)
	}
	return "unassigned"
}

func ingredientTable(w *components.Writer, breakdown herbal.Breakdown, ingredients []herbal.Ingredient) {
	w.Raw("<table class=\"ingredients\"><thead><tr><th>Herb</th><th>Quantity</th><th>Share</th><th>Role</th><th>Function</th></tr></thead><tbody>")
	for _, ingredient := range ingredients {
		w.Raw("<tr><td>")
		if ingredient.HerbID != "" {
			w.Raw("<a")
			w.Attr("href", "/herbs/"+url.PathEscape(ingredient.HerbID))
			w.Raw(">")
			w.Text(ingredient.DisplayTitle())
			w.Raw("</a>")
		} else {
			w.Text(ingredient.DisplayTitle())
		}
		w.Raw("</td><td>")
		w.Text(herbal.FormatQuantity(ingredient.Quantity, ingredient.DisplayUnit()))
		w.Raw("</td><td>")
		w.Text(herbal.FormatPercentage(breakdown.Percentage(ingredient)))
		w.Raw("</td><td>")
		w.Component(components.RoleBadge(ingredient.Role))
		w.Raw("</td><td>")
		w.Text(ingredient.Function)
		if ingredient.Notes != "" {
			w.Raw("<small class=\"ingredient__notes\">")
			w.Text(ingredient.Notes)
			w.Raw("</small>")
		}
		w.Raw("</td></tr>")
	}
	w.Raw("</tbody></table>")
}

// ContributionList renders approved contributions or an empty state.
func ContributionList(list []contribution.Contribution, loadError string) templ.Component {
	return components.Render(func(w *components.Writer) {
		w.Raw("<div id=\"contribution-list\">")
		switch {
		case loadError != "":
			w.Component(components.EmptyState(loadError))
		case len(list) == 0:
			w.Component(components.EmptyState("No approved contributions yet."))
		default:
			w.Raw("<ol class=\"contributions\">")
			for _, item := range list {
				w.Raw("<li class=\"contribution\"><header><strong>")
				w.Text(ContributionTypeLabel(string(item.Type)))
				w.Raw("</strong> <span class=\"contribution__meta\">")
				w.Text(DefaultDash(item.AuthorName))
				w.Text(" · " + formatDate(item.CreatedAt))
				w.Raw("</span></header>")
				if item.Type.IsClinicalNote() {
					w.Raw("<p>")
					w.Text(item.ClinicalNote)
					w.Raw("</p>")
				} else {
					modificationList(w, item.Modifications)
				}
				if item.Context != "" {
					w.Raw("<p class=\"contribution__context\">")
					w.Text(item.Context)
					w.Raw("</p>")
				}
				w.Raw("</li>")
			}
			w.Raw("</ol>")
		}
		w.Raw("</div>")
	})
}

func modificationList(w *components.Writer, mods []contribution.Modification) {
	w.Raw("<ul class=\"modifications\">")
	for _, mod := range mods {
		w.Raw("<li><span class=\"modification__action\">")
		w.Text(ActionLabel(mod.Action))
		w.Raw("</span> ")
		w.Text(DefaultDash(mod.HerbTitle))
		if mod.Action != contribution.ActionRemove {
			if mod.Quantity > 0 {
				w.Text(" " + herbal.FormatQuantity(mod.Quantity, mod.Unit))
			}
			w.Component(components.RoleBadge(mod.Role))
			if mod.Function != "" {
				w.Text(" · " + mod.Function)
			}
		}
		w.Raw("<p class=\"modification__rationale\">")
		w.Text(mod.Rationale)
		w.Raw("</p></li>")
	}
	w.Raw("</ul>")
}

// PendingReceipts lists the viewer's own submissions awaiting moderation.
func PendingReceipts(receipts []models.ContributionReceipt) templ.Component {
	return components.Render(func(w *components.Writer) {
		w.Raw("<aside class=\"pending\"><h3>Awaiting moderation</h3><ul>")
		for _, receipt := range receipts {
			w.Raw("<li><strong>")
			w.Text(ContributionTypeLabel(receipt.Type))
			w.Raw("</strong> ")
			w.Text(receipt.Summary)
			w.Raw(" <span class=\"pending__date\">")
			w.Text(formatDate(receipt.SubmittedAt))
			w.Raw("</span></li>")
		}
		w.Raw("</ul></aside>")
	})
}

// ContributionFormPartial renders the contribution form. Anonymous visitors
// get a sign-in prompt instead.
func ContributionFormPartial(formulaID string, form ContributionForm, signedIn bool) templ.Component {
	return components.Render(func(w *components.Writer) {
		w.Raw("<div id=\"contribution-form\">")
		if !signedIn {
			w.Raw("<p class=\"contribution-form__signin\"><a")
			w.Attr("href", "/login?next="+url.QueryEscape("/formulas/"+url.PathEscape(formulaID)))
			w.Raw(">Sign in</a> to share a clinical note or propose changes.</p></div>")
			return
		}

		action := "/formulas/" + url.PathEscape(formulaID) + "/contributions"
		mode := form.Mode
		if mode == "" {
			mode = string(contribution.TypeClinicalNote)
		}

		w.Raw("<form method=\"post\"")
		w.Attr("action", action)
		w.Attr("hx-post", action)
		w.Raw(" hx-target=\"#contribution-form\" hx-swap=\"outerHTML\"><h3>Contribute</h3>")
		if form.Message != "" {
			w.Raw("<p class=\"form-message\" role=\"alert\">")
			w.Text(form.Message)
			w.Raw("</p>")
		}

		w.Raw("<fieldset class=\"contribution-form__mode\"><legend>Type</legend>")
		modeOption(w, mode, string(contribution.TypeClinicalNote), "Clinical note")
		modeOption(w, mode, string(contribution.TypeModification), "Herb modifications")
		w.Raw("</fieldset>")
		w.Component(components.FieldError(form.Errors.Field("contribution_type")))

		w.Raw("<label>Clinical note<textarea name=\"clinical_note\"")
		w.Attr("minlength", fmt.Sprint(contribution.MinClinicalNoteLength))
		w.Attr("maxlength", fmt.Sprint(contribution.MaxClinicalNoteLength))
		w.Raw(">")
		w.Text(form.Fields.ClinicalNote)
		w.Raw("</textarea></label>")
		w.Component(components.FieldError(form.Errors.Field("clinical_note")))

		w.Raw("<div class=\"contribution-form__modifications\">")
		w.Component(components.FieldError(form.Errors.Field("modifications")))
		rows := form.Fields.Modifications
		if len(rows) == 0 {
			rows = []contribution.Modification{{}}
		}
		for i, mod := range rows {
			modificationRow(w, i, mod, form.Errors)
		}
		w.Raw("</div>")

		w.Raw("<label>Context<textarea name=\"context\">")
		w.Text(form.Fields.Context)
		w.Raw("</textarea></label>")
		w.Raw("<button type=\"submit\">Submit for review</button></form></div>")
	})
}

func modeOption(w *components.Writer, current, value, label string) {
	w.Raw("<label><input type=\"radio\" name=\"contribution_type\"")
	w.Attr("value", value)
	if current == value {
		w.Raw(" checked")
	}
	w.Raw(">")
	w.Text(label)
	w.Raw("</label>")
}

func modificationRow(w *components.Writer, index int, mod contribution.Modification, errs contribution.Errors) {
	name := func(field string) string {
		return fmt.Sprintf("modifications[%d].%s", index, field)
	}
	w.Raw("<fieldset class=\"modification-row\"><legend>")
	w.Text(fmt.Sprintf("Change %d", index+1))
	w.Raw("</legend><label>Action<select")
	w.Attr("name", name("action"))
	w.Raw(">")
	for _, action := range []contribution.Action{contribution.ActionAdd, contribution.ActionModify, contribution.ActionRemove} {
		w.Raw("<option")
		w.Attr("value", string(action))
		if mod.Action == action {
			w.Raw(" selected")
		}
		w.Raw(">")
		w.Text(ActionLabel(action))
		w.Raw("</option>")
	}
	w.Raw("</select></label>")
	w.Component(components.FieldError(errs.Field(contribution.ModificationField(index, "action"))))

	w.Raw("<label>Herb<input type=\"search\" autocomplete=\"off\" data-typeahead=\"/api/herbs\"")
	w.Attr("name", name("herb_title"))
	w.Attr("value", mod.HerbTitle)
	w.Raw("></label><input type=\"hidden\" data-typeahead-id")
	w.Attr("name", name("herb_id"))
	w.Attr("value", mod.HerbID)
	w.Raw(">")
	w.Component(components.FieldError(errs.Field(contribution.ModificationField(index, "herb_title"))))
	w.Component(components.FieldError(errs.Field(contribution.ModificationField(index, "herb_id"))))

	quantity := ""
	if mod.Quantity != 0 {
		quantity = fmt.Sprint(mod.Quantity)
	}
	w.Raw("<label>Quantity<input type=\"number\" step=\"any\" min=\"0\"")
	w.Attr("name", name("quantity"))
	w.Attr("value", quantity)
	w.Raw("></label><label>Unit<input type=\"text\"")
	w.Attr("name", name("unit"))
	w.Attr("value", mod.Unit)
	w.Raw("></label>")
	w.Component(components.FieldError(errs.Field(contribution.ModificationField(index, "quantity"))))

	w.Raw("<label>Role<select")
	w.Attr("name", name("role"))
	w.Raw("><option value=\"\">None</option>")
	for _, role := range herbal.DisplayOrder {
		if !role.Assigned() {
			continue
		}
		w.Raw("<option")
		w.Attr("value", string(role))
		if mod.Role == role {
			w.Raw(" selected")
		}
		w.Raw(">")
		w.Text(herbal.BucketLabel(role))
		w.Raw("</option>")
	}
	w.Raw("</select></label><label>Function<input type=\"text\"")
	w.Attr("name", name("function"))
	w.Attr("value", mod.Function)
	w.Raw("></label><label>Rationale<textarea")
	w.Attr("name", name("rationale"))
	w.Raw(">")
	w.Text(mod.Rationale)
	w.Raw("</textarea></label>")
	w.Component(components.FieldError(errs.Field(contribution.ModificationField(index, "rationale"))))
	w.Raw("</fieldset>")
}
