package app

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"willvault/api/internal/email"
	"willvault/api/internal/export"
	"willvault/api/internal/guidance"
	"willvault/api/internal/persist"
	"willvault/api/internal/sanitize"
	"willvault/api/internal/validate"
	"willvault/api/internal/will"
	"willvault/api/internal/wizard"
)

var (
	errSessionNotFound = domainError(http.StatusNotFound, "SESSION_NOT_FOUND", "Wizard session not found", nil)
	errSessionOwner    = domainError(http.StatusForbidden, "FORBIDDEN", "Wizard session belongs to another account", nil)
	errSignInRequired  = domainError(http.StatusUnauthorized, "SIGN_IN_REQUIRED", "Sign in to save your will", nil)
)

// WizardView is the wizard state plus how it was obtained.
type WizardView struct {
	wizard.State
	Restored bool             `json:"restored"`
	Saves    wizard.SaveStats `json:"saves"`
}

func identityOf(session *Session) persist.Identity {
	if session == nil || session.UserID == "" {
		return persist.Identity{}
	}
	return persist.Identity{Authenticated: true, UserID: session.UserID}
}

func view(st *wizard.Store, restored bool) WizardView {
	return WizardView{State: st.State(), Restored: restored, Saves: st.SaveStats()}
}

// OpenWizard creates a session, or resumes sessionID from memory or its
// saved snapshot.
func (s *Service) OpenWizard(ctx context.Context, sessionID string, session *Session) (WizardView, error) {
	if sessionID != "" {
		if existing, err := s.wizards.Get(sessionID); err == nil {
			if err := checkOwner(existing, session); err != nil {
				return WizardView{}, err
			}
		}
	}
	st, restored := s.wizards.Open(ctx, sessionID, identityOf(session))
	if err := checkOwner(st, session); err != nil {
		return WizardView{}, err
	}
	s.logger.Debug("wizard opened",
		zap.String("session_id", st.SessionID()),
		zap.Bool("restored", restored),
		zap.Bool("authenticated", session != nil),
	)
	return view(st, restored), nil
}

// checkOwner refuses anonymous or foreign callers on a signed-in session.
func checkOwner(st *wizard.Store, session *Session) error {
	owner := st.Identity()
	if owner.Authenticated && owner.UserID != identityOf(session).UserID {
		return errSessionOwner
	}
	return nil
}

func (s *Service) wizard(sessionID string, session *Session) (*wizard.Store, error) {
	st, err := s.wizards.Get(sessionID)
	if errors.Is(err, wizard.ErrSessionNotFound) {
		return nil, errSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := checkOwner(st, session); err != nil {
		return nil, err
	}
	if who := identityOf(session); who.Authenticated && !st.Identity().Authenticated {
		st.SetAuthStatus(true, who.UserID)
	}
	return st, nil
}

// edit runs fn against the session's store and returns the resulting state.
func (s *Service) edit(sessionID string, session *Session, fn func(*wizard.Store) error) (WizardView, error) {
	st, err := s.wizard(sessionID, session)
	if err != nil {
		return WizardView{}, err
	}
	if err := fn(st); err != nil {
		return WizardView{}, err
	}
	return view(st, false), nil
}

func (s *Service) WizardState(sessionID string, session *Session) (WizardView, error) {
	return s.edit(sessionID, session, func(*wizard.Store) error { return nil })
}

func (s *Service) ClearWizard(ctx context.Context, sessionID string, session *Session) error {
	if _, err := s.wizard(sessionID, session); err != nil {
		return err
	}
	if err := s.wizards.Clear(ctx, sessionID); err != nil && !errors.Is(err, wizard.ErrSessionNotFound) {
		s.logger.Warn("wizard clear incomplete", zap.String("session_id", sessionID), zap.Error(err))
	}
	return nil
}

func (s *Service) UpdatePersonalInfo(sessionID string, session *Session, p wizard.PersonalInfoPatch) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		if p.State != nil {
			if code := sanitize.Text(*p.State); code != "" && !validate.KnownState(code) {
				return domainError(http.StatusBadRequest, "UNKNOWN_STATE", "Unknown state", map[string]any{"state": code})
			}
		}
		st.UpdatePersonalInfo(p)
		return nil
	})
}

func (s *Service) UpdateDigitalAssets(sessionID string, session *Session, p wizard.DigitalAssetsPatch) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		st.UpdateDigitalAssets(p)
		return nil
	})
}

func (s *Service) UpdateCryptoSetup(sessionID string, session *Session, p wizard.CryptoSetupPatch) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		if p.Wallets != nil {
			for _, w := range *p.Wallets {
				if !w.Type.Valid() {
					return domainError(http.StatusBadRequest, "INVALID_WALLET_TYPE", "Unknown wallet type", map[string]any{"type": w.Type})
				}
			}
		}
		st.UpdateCryptoSetup(p)
		return nil
	})
}

func (s *Service) UpdateBeneficiaries(sessionID string, session *Session, p wizard.BeneficiariesPatch) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		st.UpdateBeneficiaries(p)
		return nil
	})
}

func (s *Service) ToggleCategory(sessionID string, session *Session, categoryID string) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		if will.CategoryGroupOf(categoryID) == "" {
			return domainError(http.StatusBadRequest, "UNKNOWN_CATEGORY", "Unknown digital asset category", map[string]any{"category": categoryID})
		}
		st.ToggleCategory(categoryID)
		return nil
	})
}

func (s *Service) SetShare(sessionID string, session *Session, which string, percentage float64) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		switch which {
		case "primary":
			st.SetShare(will.SharePrimary, percentage)
		case "secondary":
			st.SetShare(will.ShareSecondary, percentage)
		default:
			return badRequest("INVALID_SHARE", `share must be "primary" or "secondary"`)
		}
		return nil
	})
}

func (s *Service) AddSecondary(sessionID string, session *Session, b will.Beneficiary) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		st.AddSecondary(b)
		return nil
	})
}

func (s *Service) RemoveSecondary(sessionID string, session *Session) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		st.RemoveSecondary()
		return nil
	})
}

// Advance moves one step forward or fails with the blocking field errors.
func (s *Service) Advance(sessionID string, session *Session) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		step := st.CurrentStep()
		if ok, errs := st.Advance(); !ok {
			return domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Step is incomplete", map[string]any{
				"step":   step,
				"errors": errs,
			})
		}
		return nil
	})
}

func (s *Service) Retreat(sessionID string, session *Session) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		st.Retreat()
		return nil
	})
}

// JumpToStep ignores out of range targets; the returned state shows
// whether the jump happened.
func (s *Service) JumpToStep(sessionID string, session *Session, step int) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		st.JumpToStep(step)
		return nil
	})
}

func (s *Service) SetField(sessionID string, session *Session, field, value string) (WizardView, error) {
	return s.edit(sessionID, session, func(st *wizard.Store) error {
		if err := st.SetFieldText(field, value); err != nil {
			if errors.Is(err, wizard.ErrUnknownField) {
				return domainError(http.StatusBadRequest, "UNKNOWN_FIELD", "Unknown field", map[string]any{"field": field})
			}
			return err
		}
		return nil
	})
}

func (s *Service) SaveDocument(ctx context.Context, sessionID string, session *Session) (will.Document, error) {
	st, err := s.wizard(sessionID, session)
	if err != nil {
		return will.Document{}, err
	}
	doc, err := st.SaveDocument(ctx)
	if errors.Is(err, wizard.ErrNotSignedIn) {
		return will.Document{}, errSignInRequired
	}
	return doc, err
}

func (s *Service) LoadDocument(ctx context.Context, sessionID string, session *Session) (WizardView, bool, error) {
	st, err := s.wizard(sessionID, session)
	if err != nil {
		return WizardView{}, false, err
	}
	found, err := st.LoadDocument(ctx)
	if errors.Is(err, wizard.ErrNotSignedIn) {
		return WizardView{}, false, errSignInRequired
	}
	if err != nil {
		return WizardView{}, false, err
	}
	return view(st, false), found, nil
}

// SetStatus moves the document's status. Reaching "paid" mails a receipt
// for planID; mail problems are logged and never fail the request.
func (s *Service) SetStatus(ctx context.Context, sessionID string, session *Session, status will.Status, planID string) (WizardView, error) {
	st, err := s.wizard(sessionID, session)
	if err != nil {
		return WizardView{}, err
	}
	var plan will.Plan
	if status == will.StatusPaid {
		p, ok := will.PlanByID(planID)
		if !ok {
			return WizardView{}, domainError(http.StatusBadRequest, "UNKNOWN_PLAN", "Unknown plan", map[string]any{"planId": planID})
		}
		plan = p
	}
	previous := st.Document().Status
	if err := st.SetStatus(status); err != nil {
		return WizardView{}, domainError(http.StatusBadRequest, "INVALID_STATUS", err.Error(), nil)
	}
	if session != nil {
		if _, err := st.SaveDocument(ctx); err != nil {
			s.logger.Warn("status change not saved", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	if status == will.StatusPaid && previous != will.StatusPaid {
		s.sendReceipt(ctx, st.Document(), session, plan)
	}
	return view(st, false), nil
}

func (s *Service) sendReceipt(ctx context.Context, doc will.Document, session *Session, plan will.Plan) {
	if s.mailer == nil || !s.mailer.IsConfigured() || session == nil || session.Email == "" {
		return
	}
	data := email.ReceiptData{
		Name:       session.DisplayName,
		PlanTitle:  plan.Title,
		Price:      plan.Price.StringFixed(2),
		DocumentID: doc.ID,
		PaidAt:     s.now(),
	}
	if doc.PersonalInfo != nil {
		if data.Name == "" {
			data.Name = doc.PersonalInfo.FullName
		}
		data.Jurisdiction, _ = will.JurisdictionName(doc.PersonalInfo.State)
	}
	var pdf []byte
	if s.exporter != nil {
		res, err := s.exporter.PDF(ctx, doc, session.UserID)
		if err != nil {
			s.logger.Warn("receipt sent without pdf", zap.Error(err))
		} else {
			pdf = res.Data
		}
	}
	if err := s.mailer.SendReceipt(session.Email, data, pdf); err != nil {
		s.logger.Error("send receipt", zap.String("user_id", session.UserID), zap.Error(err))
		return
	}
	s.logger.Info("receipt sent", zap.String("user_id", session.UserID), zap.String("plan", plan.ID))
}

func (s *Service) Preview(sessionID string, session *Session) (*export.Result, error) {
	st, err := s.wizard(sessionID, session)
	if err != nil {
		return nil, err
	}
	st.FlushFields()
	return s.exporter.Preview(st.Document())
}

func (s *Service) PreviewPDF(ctx context.Context, sessionID string, session *Session) (*export.Result, error) {
	st, err := s.wizard(sessionID, session)
	if err != nil {
		return nil, err
	}
	st.FlushFields()
	owner := ""
	if session != nil {
		owner = session.UserID
	}
	res, err := s.exporter.PDF(ctx, st.Document(), owner)
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		return nil, domainError(http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF export is not available on this server", nil)
	}
	return res, err
}

// GuidanceRequest is the caller-supplied part of a guidance context.
type GuidanceRequest struct {
	Message string             `json:"message"`
	State   string             `json:"userState"`
	History []guidance.Message `json:"conversationHistory"`
}

func (s *Service) guidanceContext(sessionID string, session *Session, req GuidanceRequest) (guidance.Context, error) {
	st, err := s.wizard(sessionID, session)
	if err != nil {
		return guidance.Context{}, err
	}
	st.FlushFields()
	return guidance.Context{
		Step:     st.CurrentStep(),
		Document: st.Document(),
		State:    req.State,
		History:  req.History,
	}, nil
}

// Guidance dispatches one advisor operation: "step", "chat", "validate" or
// "review".
func (s *Service) Guidance(ctx context.Context, sessionID string, session *Session, kind string, req GuidanceRequest) (guidance.Response, error) {
	c, err := s.guidanceContext(sessionID, session, req)
	if err != nil {
		return guidance.Response{}, err
	}
	switch kind {
	case "step":
		return s.advisor.StepGuidance(ctx, c), nil
	case "chat":
		if req.Message == "" {
			return guidance.Response{}, badRequest("MESSAGE_REQUIRED", "message is required")
		}
		return s.advisor.Chat(ctx, req.Message, c), nil
	case "validate":
		return s.advisor.ValidateStep(ctx, c), nil
	case "review":
		return s.advisor.ReviewDocument(ctx, c.Document, req.State), nil
	}
	return guidance.Response{}, badRequest("UNKNOWN_GUIDANCE", "unknown guidance kind")
}
