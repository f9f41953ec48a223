package app

import (
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	"willvault/api/internal/sanitize"
	"willvault/api/internal/will"
	"willvault/api/internal/wizard"
)

var guidanceKinds = map[string]string{
	"guidance": "step",
	"chat":     "chat",
	"validate": "validate",
	"review":   "review",
}

// handleWizard serves /api/wizard/sessions[/{id}[/...]]. parts starts after
// "sessions".
func (s *HTTPServer) handleWizard(w http.ResponseWriter, r *http.Request, session *Session, parts []string) {
	if len(parts) == 0 {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		var body struct {
			SessionID string `json:"sessionId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		v, err := s.service.OpenWizard(r.Context(), body.SessionID, session)
		s.respondView(w, v, err)
		return
	}

	sessionID := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			v, err := s.service.WizardState(sessionID, session)
			s.respondView(w, v, err)
		case http.MethodDelete:
			if err := s.service.ClearWizard(r.Context(), sessionID, session); err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	action := parts[1]
	switch {
	case r.Method == http.MethodPut && action == "personal-info" && len(parts) == 2:
		var body wizard.PersonalInfoPatch
		if !s.decode(w, r, &body) {
			return
		}
		v, err := s.service.UpdatePersonalInfo(sessionID, session, body)
		s.respondView(w, v, err)

	case r.Method == http.MethodPut && action == "digital-assets" && len(parts) == 2:
		var body wizard.DigitalAssetsPatch
		if !s.decode(w, r, &body) {
			return
		}
		v, err := s.service.UpdateDigitalAssets(sessionID, session, body)
		s.respondView(w, v, err)

	case r.Method == http.MethodPut && action == "crypto-setup" && len(parts) == 2:
		var body wizard.CryptoSetupPatch
		if !s.decode(w, r, &body) {
			return
		}
		v, err := s.service.UpdateCryptoSetup(sessionID, session, body)
		s.respondView(w, v, err)

	case r.Method == http.MethodPut && action == "beneficiaries" && len(parts) == 2:
		var body wizard.BeneficiariesPatch
		if !s.decode(w, r, &body) {
			return
		}
		v, err := s.service.UpdateBeneficiaries(sessionID, session, body)
		s.respondView(w, v, err)

	case r.Method == http.MethodPost && action == "categories" && len(parts) == 4 && parts[3] == "toggle":
		v, err := s.service.ToggleCategory(sessionID, session, parts[2])
		s.respondView(w, v, err)

	case r.Method == http.MethodPost && action == "shares" && len(parts) == 2:
		var body struct {
			Which      string  `json:"which"`
			Percentage float64 `json:"percentage"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		v, err := s.service.SetShare(sessionID, session, body.Which, body.Percentage)
		s.respondView(w, v, err)

	case action == "secondary" && len(parts) == 2 && r.Method == http.MethodPost:
		var body will.Beneficiary
		if !s.decode(w, r, &body) {
			return
		}
		v, err := s.service.AddSecondary(sessionID, session, body)
		s.respondView(w, v, err)

	case action == "secondary" && len(parts) == 2 && r.Method == http.MethodDelete:
		v, err := s.service.RemoveSecondary(sessionID, session)
		s.respondView(w, v, err)

	case r.Method == http.MethodPost && action == "advance" && len(parts) == 2:
		v, err := s.service.Advance(sessionID, session)
		s.respondView(w, v, err)

	case r.Method == http.MethodPost && action == "retreat" && len(parts) == 2:
		v, err := s.service.Retreat(sessionID, session)
		s.respondView(w, v, err)

	case r.Method == http.MethodPost && action == "jump" && len(parts) == 2:
		var body struct {
			Step int `json:"step"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		v, err := s.service.JumpToStep(sessionID, session, body.Step)
		s.respondView(w, v, err)

	case r.Method == http.MethodPost && action == "fields" && len(parts) == 2:
		var body struct {
			Field string `json:"field"`
			Value string `json:"value"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		v, err := s.service.SetField(sessionID, session, body.Field, body.Value)
		s.respondView(w, v, err)

	case r.Method == http.MethodPost && action == "document" && len(parts) == 2:
		doc, err := s.service.SaveDocument(r.Context(), sessionID, session)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"document": doc})

	case r.Method == http.MethodGet && action == "document" && len(parts) == 2:
		v, found, err := s.service.LoadDocument(r.Context(), sessionID, session)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"found": found, "state": v})

	case r.Method == http.MethodGet && action == "preview" && len(parts) == 2:
		res, err := s.service.Preview(sessionID, session)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeFile(w, res, "inline")

	case r.Method == http.MethodGet && action == "preview.pdf" && len(parts) == 2:
		res, err := s.service.PreviewPDF(r.Context(), sessionID, session)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeFile(w, res, "attachment")

	case r.Method == http.MethodPost && action == "status" && len(parts) == 2:
		var body struct {
			Status will.Status `json:"status"`
			PlanID string      `json:"planId"`
		}
		if !s.decode(w, r, &body) {
			return
		}
		v, err := s.service.SetStatus(r.Context(), sessionID, session, body.Status, body.PlanID)
		s.respondView(w, v, err)

	case r.Method == http.MethodPost && guidanceKinds[action] != "" && len(parts) == 2:
		var raw any
		if !s.decode(w, r, &raw) {
			return
		}
		body, err := guidanceRequest(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		resp, err := s.service.Guidance(r.Context(), sessionID, session, guidanceKinds[action], body)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// guidanceRequest cleans every string in a decoded guidance body, history
// included, before it can reach an advisor prompt.
func guidanceRequest(raw any) (GuidanceRequest, error) {
	var req GuidanceRequest
	data, err := json.Marshal(sanitize.Deep(raw))
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("invalid guidance body")
	}
	return req, nil
}

func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeBody(r, target); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return false
	}
	return true
}

func (s *HTTPServer) respondView(w http.ResponseWriter, v WizardView, err error) {
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
