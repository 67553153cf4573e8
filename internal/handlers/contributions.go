package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"herbarium/internal/contribution"
	"herbarium/internal/herbal"
	applog "herbarium/internal/log"
	"herbarium/internal/views/components"
	"herbarium/internal/views/pages"
	"herbarium/models"
)

const maxContributionBody = 64 << 10

type modificationRequest struct {
	HerbID    string        `json:"herb_id"`
	HerbTitle string        `json:"herb_title"`
	Action    string        `json:"action"`
	Quantity  herbal.Number `json:"quantity"`
	Unit      string        `json:"unit"`
	Role      string        `json:"role"`
	Function  string        `json:"function"`
	Rationale string        `json:"rationale"`
}

type contributionRequest struct {
	ContributionType string                `json:"contribution_type"`
	ClinicalNote     string                `json:"clinical_note"`
	Context          string                `json:"context"`
	Modifications    []modificationRequest `json:"modifications"`
}

type receiptResponse struct {
	ID        string `json:"id"`
	RemoteID  string `json:"remote_id,omitempty"`
	FormulaID string `json:"formula_id"`
	Type      string `json:"contribution_type"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

const submittedMessage = "Thanks! Your contribution was submitted and will appear once a moderator approves it."

func wantsJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// SubmitContribution validates and forwards a contribution for the formula in
// the path. It accepts form posts (including HTMX) and JSON bodies.
func SubmitContribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	formulaID := strings.TrimSpace(r.PathValue("id"))
	jsonClient := wantsJSON(r)

	author := currentAuthor(r)
	if author == nil {
		applog.Debug(r.Context(), "contribution attempted without session", "formulaID", formulaID)
		if jsonClient {
			writeJSONError(w, http.StatusUnauthorized, contribution.FailureMessage(contribution.ErrAuthenticationRequired))
			return
		}
		if sessionManager != nil {
			sessionManager.Put(r.Context(), sessionLoginMessageKey, contribution.FailureMessage(contribution.ErrAuthenticationRequired))
			sessionManager.Put(r.Context(), sessionReturnToKey, "/formulas/"+formulaID)
		}
		redirectToLogin(w, r)
		return
	}

	mode, fields, err := decodeContribution(w, r, jsonClient)
	if err != nil {
		applog.Debug(r.Context(), "failed to decode contribution", "error", err)
		if jsonClient {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	fields.FormulaID = formulaID

	payload, err := contribution.Build(mode, fields)
	if err != nil {
		var fieldErrs contribution.Errors
		if !errors.As(err, &fieldErrs) {
			fieldErrs = contribution.Errors{"contribution_type": err.Error()}
		}
		applog.Debug(r.Context(), "contribution failed validation", "formulaID", formulaID, "fields", len(fieldErrs))
		if jsonClient {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "Please correct the highlighted fields.",
				"fields": fieldErrs,
			})
			return
		}
		renderContributionForm(w, r, http.StatusUnprocessableEntity, formulaID, pages.ContributionForm{
			Mode:   mode,
			Fields: fields,
			Errors: fieldErrs,
		})
		return
	}

	if submitter == nil {
		if jsonClient {
			writeJSONError(w, http.StatusServiceUnavailable, "contributions are not available")
			return
		}
		http.Error(w, "contributions are not available", http.StatusServiceUnavailable)
		return
	}

	receipt, err := submitter.Submit(r.Context(), author, payload)
	if err != nil {
		message := contribution.FailureMessage(err)
		status := http.StatusBadGateway
		if errors.Is(err, contribution.ErrAuthenticationRequired) {
			status = http.StatusUnauthorized
		}
		if jsonClient {
			writeJSONError(w, status, message)
			return
		}
		renderContributionForm(w, r, status, formulaID, pages.ContributionForm{
			Mode:    mode,
			Fields:  fields,
			Message: message,
		})
		return
	}

	storeReceipt(r, receipt, payload)

	if jsonClient {
		writeJSON(w, http.StatusCreated, receiptResponse{
			ID:        receipt.ID,
			RemoteID:  receipt.RemoteID,
			FormulaID: receipt.FormulaID,
			Type:      string(receipt.Type),
			Status:    string(receipt.Status),
			Message:   submittedMessage,
		})
		return
	}

	setFlash(r, components.FlashSuccess, submittedMessage)
	redirectTo(w, r, "/formulas/"+formulaID)
}

// renderContributionForm re-renders the form with errors: only the form for
// HTMX requests, otherwise the whole formula page.
func renderContributionForm(w http.ResponseWriter, r *http.Request, status int, formulaID string, form pages.ContributionForm) {
	if isHTMX(r) {
		renderComponentStatus(w, r, status, pages.ContributionFormPartial(formulaID, form, true))
		return
	}
	view, _ := loadFormulaView(r, formulaID)
	view.Form = form
	renderComponentStatus(w, r, status, pages.FormulaDetail(pageChrome(r, formulaTitle(view), "formulas"), view))
}

func storeReceipt(r *http.Request, receipt contribution.Receipt, payload contribution.Payload) {
	userID, ok := currentUserID(r)
	if !ok || database == nil {
		return
	}
	title := ""
	if content != nil {
		if formula, err := content.GetFormula(r.Context(), receipt.FormulaID); err == nil {
			title = formula.Title
		}
	}
	record := models.NewContributionReceipt(userID, title, receipt, payload)
	if err := database.WithContext(r.Context()).Create(&record).Error; err != nil {
		applog.Error(r.Context(), "failed to store contribution receipt", "receiptID", receipt.ID, "error", err)
	}
}

func decodeContribution(w http.ResponseWriter, r *http.Request, jsonClient bool) (string, contribution.Fields, error) {
	if jsonClient {
		var body contributionRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContributionBody))
		if err := decoder.Decode(&body); err != nil {
			return "", contribution.Fields{}, err
		}
		fields := contribution.Fields{
			ClinicalNote: body.ClinicalNote,
			Context:      body.Context,
		}
		for _, mod := range body.Modifications {
			fields.Modifications = append(fields.Modifications, contribution.Modification{
				HerbID:    mod.HerbID,
				HerbTitle: mod.HerbTitle,
				Action:    contribution.Action(mod.Action),
				Quantity:  mod.Quantity.Float(),
				Unit:      mod.Unit,
				Role:      herbal.ParseRole(mod.Role),
				Function:  mod.Function,
				Rationale: mod.Rationale,
			})
		}
		return body.ContributionType, fields, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxContributionBody)
	if err := r.ParseForm(); err != nil {
		return "", contribution.Fields{}, err
	}
	mods, err := parseModificationRows(r)
	if err != nil {
		return "", contribution.Fields{}, err
	}
	fields := contribution.Fields{
		ClinicalNote:  r.PostFormValue("clinical_note"),
		Context:       r.PostFormValue("context"),
		Modifications: mods,
	}
	return r.PostFormValue("contribution_type"), fields, nil
}

var modificationKey = regexp.MustCompile(`^modifications\[(\d+)\]\.([a-z_]+)$`)

// parseModificationRows reads modifications[i].field form keys in index
// order, dropping rows the user left completely blank. Every other row is
// kept so that Build can reject an oversized submission as a whole.
func parseModificationRows(r *http.Request) ([]contribution.Modification, error) {
	rows := map[int]map[string]string{}
	for key, values := range r.PostForm {
		match := modificationKey.FindStringSubmatch(key)
		if match == nil || len(values) == 0 {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("modification row %q: %w", match[1], err)
		}
		if rows[index] == nil {
			rows[index] = map[string]string{}
		}
		rows[index][match[2]] = strings.TrimSpace(values[0])
	}

	indices := make([]int, 0, len(rows))
	for index := range rows {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	var mods []contribution.Modification
	for _, index := range indices {
		row := rows[index]
		if blankRow(row) {
			continue
		}
		mods = append(mods, contribution.Modification{
			HerbID:    row["herb_id"],
			HerbTitle: row["herb_title"],
			Action:    contribution.Action(row["action"]),
			Quantity:  herbal.ParseNumber(row["quantity"]),
			Unit:      row["unit"],
			Role:      herbal.ParseRole(row["role"]),
			Function:  row["function"],
			Rationale: row["rationale"],
		})
	}
	return mods, nil
}

// blankRow ignores the action select, which always carries a value.
func blankRow(row map[string]string) bool {
	for key, value := range row {
		if key == "action" || key == "unit" {
			continue
		}
		if value != "" {
			return false
		}
	}
	return true
}

// FormulaContributions returns the approved contributions of a formula as JSON.
func FormulaContributions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if content == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "contributions are not available")
		return
	}

	formulaID := strings.TrimSpace(r.PathValue("id"))
	list, err := content.ListContributions(r.Context(), formulaID)
	if err != nil {
		applog.Error(r.Context(), "failed to list contributions", "formulaID", formulaID, "error", err)
		writeJSONError(w, contentStatus(err), contentMessage(err, "formula's contributions"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contributions": contributionsJSON(list)})
}

type contributionJSON struct {
	ID            string                      `json:"id"`
	FormulaID     string                      `json:"formula_id"`
	Type          contribution.Type           `json:"contribution_type"`
	Status        contribution.Status         `json:"status"`
	ClinicalNote  string                      `json:"clinical_note,omitempty"`
	Context       string                      `json:"context,omitempty"`
	Modifications []contribution.Modification `json:"modifications,omitempty"`
	AuthorName    string                      `json:"author_name,omitempty"`
	CreatedAt     string                      `json:"created_at,omitempty"`
}

func contributionsJSON(list []contribution.Contribution) []contributionJSON {
	out := make([]contributionJSON, 0, len(list))
	for _, item := range list {
		entry := contributionJSON{
			ID:            item.ID,
			FormulaID:     item.FormulaID,
			Type:          item.Type,
			Status:        item.Status,
			ClinicalNote:  item.ClinicalNote,
			Context:       item.Context,
			Modifications: item.Modifications,
			AuthorName:    item.AuthorName,
		}
		if !item.CreatedAt.IsZero() {
			entry.CreatedAt = item.CreatedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	return out
}

// MyContributions lists the signed-in user's contribution receipts.
func MyContributions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := currentUserID(r)
	if !ok {
		redirectToLogin(w, r)
		return
	}

	var receipts []models.ContributionReceipt
	if database != nil {
		if err := database.WithContext(r.Context()).Where("user_id = ?", userID).Order("submitted_at desc").Find(&receipts).Error; err != nil {
			applog.Error(r.Context(), "failed to load contribution receipts", "userID", userID, "error", err)
		}
	}
	renderComponent(w, r, pages.MyContributions(pageChrome(r, "Your contributions", ""), receipts))
}
