package web

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/evcraddock/visitor-desk/internal/auth"
)

// passkeyHandlers holds WebAuthn-related HTTP handlers. Registration runs
// under bearer auth; login is public and ends by issuing an API key.
type passkeyHandlers struct {
	wan        *webauthn.WebAuthn
	passkeys   *auth.PasskeyStore
	apiKeys    *auth.APIKeyStore
	users      *auth.UserStore
	ceremonies *auth.CeremonyStore
}

type ceremonyResponse struct {
	Ceremony string      `json:"ceremony"`
	Options  interface{} `json:"options"`
}

type passkeyResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newPasskeyHandlers(baseURL string, passkeys *auth.PasskeyStore, apiKeys *auth.APIKeyStore, users *auth.UserStore, ceremonies *auth.CeremonyStore) (*passkeyHandlers, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Visitor Desk",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{strings.TrimRight(baseURL, "/")},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		wan:        wan,
		passkeys:   passkeys,
		apiKeys:    apiKeys,
		users:      users,
		ceremonies: ceremonies,
	}, nil
}

func (h *passkeyHandlers) userFor(u *auth.User) (*auth.PasskeyUser, error) {
	creds, err := h.passkeys.WebAuthnCredentials(u.Email)
	if err != nil {
		return nil, err
	}
	return auth.NewPasskeyUser(u.Email, u.Name, creds), nil
}

// handleList returns the caller's registered passkeys.
func (h *passkeyHandlers) handleList(w http.ResponseWriter, r *http.Request) {
	stored, err := h.passkeys.ListByEmail(caller(r).Email)
	if err != nil {
		slog.Error("listing passkeys", "err", err)
		apiError(w, "listing passkeys failed", http.StatusInternalServerError)
		return
	}

	resp := make([]passkeyResponse, len(stored))
	for i, sc := range stored {
		resp[i] = passkeyResponse{ID: sc.ID, Name: sc.Name}
	}
	apiJSON(w, resp, http.StatusOK)
}

// handleDelete removes one of the caller's passkeys.
func (h *passkeyHandlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.passkeys.Delete(r.PathValue("id"), caller(r).Email); err != nil {
		apiError(w, "passkey not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBeginRegistration starts passkey registration for the caller.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	user, err := h.userFor(u)
	if err != nil {
		slog.Error("loading credentials", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Exclude existing credentials so user doesn't re-register the same key
	creds := user.WebAuthnCredentials()
	excludeList := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		excludeList[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(user,
		webauthn.WithExclusions(excludeList),
	)
	if err != nil {
		slog.Error("beginning registration", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	id, err := h.ceremonies.Put(u.Email, session)
	if err != nil {
		slog.Error("storing ceremony", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, ceremonyResponse{Ceremony: id, Options: creation}, http.StatusOK)
}

// handleFinishRegistration completes passkey registration. The ceremony ID
// and an optional passkey name travel as query parameters; the body is the
// authenticator response.
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	session, email, err := h.ceremonies.Take(r.URL.Query().Get("ceremony"))
	if err != nil || email != u.Email {
		apiError(w, auth.ErrCeremonyNotFound.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userFor(u)
	if err != nil {
		slog.Error("loading credentials", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	credential, err := h.wan.FinishRegistration(user, *session, r)
	if err != nil {
		slog.Warn("finishing registration", "email", u.Email, "err", err)
		apiError(w, "registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}

	if err := h.passkeys.Save(u.Email, name, credential); err != nil {
		slog.Error("saving credential", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleBeginLogin starts a discoverable passkey login.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	id, err := h.ceremonies.Put("", session)
	if err != nil {
		slog.Error("storing ceremony", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, ceremonyResponse{Ceremony: id, Options: assertion}, http.StatusOK)
}

// handleFinishLogin completes a passkey login and issues an API key.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	session, _, err := h.ceremonies.Take(r.URL.Query().Get("ceremony"))
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var loggedIn *auth.User
	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		emails, err := h.users.AllEmails()
		if err != nil {
			return nil, err
		}

		for _, email := range emails {
			if !bytes.Equal(auth.PasskeyUserHandle(email), userHandle) {
				continue
			}
			u, err := h.users.Lookup(email)
			if err != nil {
				return nil, err
			}
			user, err := h.userFor(u)
			if err != nil {
				return nil, err
			}
			loggedIn = u
			return user, nil
		}

		return nil, protocol.ErrBadRequest.WithDetails("unknown user")
	}

	_, credential, err := h.wan.FinishPasskeyLogin(handler, *session, r)
	if err != nil || loggedIn == nil {
		slog.Warn("passkey login failed", "err", err)
		apiError(w, "login failed", http.StatusUnauthorized)
		return
	}

	if err := h.passkeys.Update(credential); err != nil {
		slog.Warn("updating credential after login", "err", err)
	}

	rawKey, _, err := h.apiKeys.Create("passkey login", loggedIn.Email)
	if err != nil {
		slog.Error("creating api key", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("login success", "email", loggedIn.Email, "method", "passkey")
	apiJSON(w, map[string]string{"api_key": rawKey, "email": loggedIn.Email}, http.StatusOK)
}

