package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"herbarium/internal/contribution"
	"herbarium/internal/herbal"
	applog "herbarium/internal/log"
	"herbarium/internal/views/pages"
	"herbarium/models"
)

// FormulaPage renders a formula with its role-grouped ingredients, approved
// contributions and the contribution form.
func FormulaPage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	view, status := loadFormulaView(r, id)
	view.Form = pages.ContributionForm{Mode: string(contribution.TypeClinicalNote)}

	renderComponentStatus(w, r, status, pages.FormulaDetail(pageChrome(r, formulaTitle(view), "formulas"), view))
}

// loadFormulaView fetches the formula and its approved contributions
// concurrently. Either read failing degrades to an empty state.
func loadFormulaView(r *http.Request, id string) (pages.FormulaView, int) {
	view := pages.FormulaView{FormulaID: id, SignedIn: ActiveSession(r)}
	if content == nil {
		view.LoadError = "Formulas are unavailable right now."
		return view, http.StatusServiceUnavailable
	}

	var (
		formula    herbal.Formula
		list       []contribution.Contribution
		formulaErr error
		listErr    error
	)

	var group errgroup.Group
	group.Go(func() error {
		formula, formulaErr = content.GetFormula(r.Context(), id)
		return nil
	})
	group.Go(func() error {
		list, listErr = content.ListContributions(r.Context(), id)
		return nil
	})
	_ = group.Wait()

	status := http.StatusOK
	if formulaErr != nil {
		applog.Error(r.Context(), "failed to load formula", "formulaID", id, "error", formulaErr)
		view.LoadError = contentMessage(formulaErr, "formula")
		status = contentStatus(formulaErr)
	} else {
		breakdown := herbal.NewBreakdown(formula)
		view.Breakdown = &breakdown
	}

	if listErr != nil {
		applog.Error(r.Context(), "failed to load contributions", "formulaID", id, "error", listErr)
		view.ContributionsError = "Community contributions are unavailable right now."
	} else {
		view.Contributions = list
	}

	view.Pending = pendingReceipts(r, id, view.Contributions)
	return view, status
}

func formulaTitle(view pages.FormulaView) string {
	if view.Breakdown != nil && view.Breakdown.Formula.Title != "" {
		return view.Breakdown.Formula.Title
	}
	return "Formula"
}

// pendingReceipts returns the signed-in user's own submissions for the
// formula that are not yet in the approved list.
func pendingReceipts(r *http.Request, formulaID string, approved []contribution.Contribution) []models.ContributionReceipt {
	userID, ok := currentUserID(r)
	if !ok || database == nil {
		return nil
	}
	ctx := r.Context()

	var receipts []models.ContributionReceipt
	err := database.WithContext(ctx).
		Where("user_id = ? AND formula_id = ? AND status = ?", userID, formulaID, string(contribution.StatusPending)).
		Order("submitted_at desc").
		Find(&receipts).Error
	if err != nil {
		applog.Error(ctx, "failed to load contribution receipts", "formulaID", formulaID, "error", err)
		return nil
	}

	visible := make(map[string]struct{}, len(approved))
	for _, item := range approved {
		if item.ID != "" {
			visible[item.ID] = struct{}{}
		}
	}
	out := receipts[:0]
	for _, receipt := range receipts {
		if _, ok := visible[receipt.RemoteID]; ok && receipt.RemoteID != "" {
			continue
		}
		out = append(out, receipt)
	}
	return out
}
