package web

import (
	"errors"
	"net/http"
	"strconv"

	"medibook/internal/adapters/http/middleware"
	"medibook/internal/application/orchestrators"
	"medibook/internal/domain/account"
	"medibook/internal/domain/audit"
)

// Success messages shown in the settings panel.
const (
	msgEmailChanged    = "Email updated successfully"
	msgPasswordChanged = "Password updated successfully"
	msgAccountDeleted  = "Account deleted successfully"
)

// rejections lists the orchestrator and domain errors whose text is safe to show the doctor.
var rejections = []error{
	orchestrators.ErrInvalidCredentials,
	orchestrators.ErrAccountLocked,
	orchestrators.ErrAccountNotFound,
	orchestrators.ErrEmailFieldsRequired,
	orchestrators.ErrIncorrectPassword,
	orchestrators.ErrEmailInUse,
	orchestrators.ErrPasswordFieldsRequired,
	orchestrators.ErrCurrentPasswordWrong,
	orchestrators.ErrNewPasswordSame,
	orchestrators.ErrDeletePasswordRequired,
	account.ErrInvalidEmail,
	account.ErrEmptyEmail,
	account.ErrEmailTooLong,
	account.ErrSameEmail,
	account.ErrEmptyPassword,
	account.ErrPasswordTooShort,
}

// respondError writes a business rejection for known errors and a 500 for anything else.
func respondError(w http.ResponseWriter, err error) {
	for _, known := range rejections {
		if errors.Is(err, known) {
			reject(w, known.Error())
			return
		}
	}
	internalError(w, err)
}

// recordAudit adds an event to the account's security log.
func (a *app) recordAudit(r *http.Request, accountID, email string, action audit.Action, desc string) {
	if a.audit == nil {
		return
	}
	event := audit.NewEvent(accountID, email, action).
		WithDescription(desc).
		WithRequest(middleware.ClientIP(r), r.UserAgent())
	orchestrators.RecordAuditEvent(r.Context(), a.audit, event)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// handleDoctorLogin handles POST /api/doctor/login
func (a *app) handleDoctorLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := strictDecode(r, &req); err != nil {
		reject(w, "invalid request body")
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{AccountStore: a.accounts})
	if err != nil {
		if acct, lookupErr := a.accounts.GetByEmail(r.Context(), req.Email); lookupErr == nil {
			a.recordAudit(r, acct.ID, acct.Email, audit.ActionLoginFailed, err.Error())
		}
		respondError(w, err)
		return
	}
	if result.Role != account.RoleDoctor {
		reject(w, orchestrators.ErrInvalidCredentials.Error())
		return
	}

	token, err := a.sessions.Create(result.AccountID, result.Email, result.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	a.recordAudit(r, result.AccountID, result.Email, audit.ActionLogin, "")
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Token: token})
}

// profileData is the doctor profile as the panel receives it.
type profileData struct {
	ID         string          `json:"_id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Speciality string          `json:"speciality"`
	Degree     string          `json:"degree"`
	Experience string          `json:"experience"`
	About      string          `json:"about"`
	Fees       int             `json:"fees"`
	Available  bool            `json:"available"`
	Address    account.Address `json:"address"`
}

type profileResponse struct {
	Success     bool        `json:"success"`
	ProfileData profileData `json:"profileData"`
}

// handleDoctorProfile handles GET /api/doctor/profile
func (a *app) handleDoctorProfile(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())
	result, err := orchestrators.ExecuteGetProfile(r.Context(), session.AccountID, orchestrators.GetProfileDeps{AccountStore: a.accounts})
	if err != nil {
		respondError(w, err)
		return
	}
	p := result.Profile
	writeJSON(w, http.StatusOK, profileResponse{
		Success: true,
		ProfileData: profileData{
			ID:         result.ID,
			Name:       p.Name,
			Email:      result.Email,
			Speciality: p.Speciality,
			Degree:     p.Degree,
			Experience: p.Experience,
			About:      p.About,
			Fees:       p.Fees,
			Available:  p.Available,
			Address:    p.Address,
		},
	})
}

type changeEmailRequest struct {
	NewEmail string `json:"newEmail"`
	Password string `json:"password"`
}

// handleChangeEmail handles POST /api/doctor/change-email
func (a *app) handleChangeEmail(w http.ResponseWriter, r *http.Request) {
	var req changeEmailRequest
	if err := strictDecode(r, &req); err != nil {
		reject(w, "invalid request body")
		return
	}
	session, _ := middleware.GetSessionFromContext(r.Context())

	err := orchestrators.ExecuteChangeEmail(r.Context(), orchestrators.ChangeEmailInput{
		AccountID: session.AccountID,
		NewEmail:  req.NewEmail,
		Password:  req.Password,
	}, orchestrators.ChangeEmailDeps{AccountStore: a.accounts, Mailer: a.mailer})
	if err != nil {
		respondError(w, err)
		return
	}
	newEmail := account.NormalizeEmail(req.NewEmail)
	a.sessions.UpdateEmail(session.AccountID, newEmail)
	a.recordAudit(r, session.AccountID, newEmail, audit.ActionEmailChange, "from "+session.Email)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgEmailChanged})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// handleChangePassword handles POST /api/doctor/change-password
func (a *app) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := strictDecode(r, &req); err != nil {
		reject(w, "invalid request body")
		return
	}
	session, _ := middleware.GetSessionFromContext(r.Context())

	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       session.AccountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: a.accounts, Mailer: a.mailer})
	if err != nil {
		respondError(w, err)
		return
	}
	a.recordAudit(r, session.AccountID, session.Email, audit.ActionPasswordChange, "")
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgPasswordChanged})
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// handleDeleteAccount handles POST /api/doctor/delete-account
func (a *app) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if err := strictDecode(r, &req); err != nil {
		reject(w, "invalid request body")
		return
	}
	session, _ := middleware.GetSessionFromContext(r.Context())

	err := orchestrators.ExecuteDeleteAccount(r.Context(), orchestrators.DeleteAccountInput{
		AccountID: session.AccountID,
		Password:  req.Password,
	}, orchestrators.DeleteAccountDeps{AccountStore: a.accounts, Sessions: a.sessions, Mailer: a.mailer})
	if err != nil {
		respondError(w, err)
		return
	}
	a.recordAudit(r, session.AccountID, session.Email, audit.ActionAccountDelete, "")
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgAccountDeleted})
}

type activityResponse struct {
	Success bool          `json:"success"`
	Events  []audit.Event `json:"events"`
}

// handleActivity handles GET /api/doctor/activity?limit=N
func (a *app) handleActivity(w http.ResponseWriter, r *http.Request) {
	if a.audit == nil {
		writeJSON(w, http.StatusOK, activityResponse{Success: true, Events: []audit.Event{}})
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			reject(w, "limit must be a number")
			return
		}
		limit = n
	}
	session, _ := middleware.GetSessionFromContext(r.Context())
	events, err := orchestrators.ExecuteListActivity(r.Context(), session.AccountID, limit, orchestrators.ListActivityDeps{AuditStore: a.audit})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activityResponse{Success: true, Events: events})
}
