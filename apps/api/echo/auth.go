package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core/session"
	"github.com/trezcool/sejali/core/user"
)

const (
	sessionCookieName = "sejali.sid"
	bearerPrefix      = "Bearer "

	contextUserKey    = "user"
	contextCapsKey    = "caps"
	contextSessionKey = "session"
)

var errInvalidToken = errors.New("invalid session token")

// tokenSigner wraps session ids in HS256 tokens, so a tampered token is rejected before any store lookup.
// The session store stays the authority on expiry.
type tokenSigner struct {
	key []byte
}

func (ts tokenSigner) sign(sess session.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:       sess.ID,
		Subject:  sess.UserID,
		IssuedAt: jwt.NewNumericDate(sess.CreatedAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.key)
	return token, errors.Wrap(err, "signing session token")
}

// parse returns the session id held by the token.
func (ts tokenSigner) parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errInvalidToken
		}
		return ts.key, nil
	})
	if err != nil || claims.ID == "" {
		return "", errInvalidToken
	}
	return claims.ID, nil
}

// requestToken reads the session token from the Authorization header, then from the session cookie.
func requestToken(ctx echo.Context) (token string, fromCookie bool) {
	if h := ctx.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):]), false
	}
	if c, err := ctx.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func (s *Server) setSessionCookie(ctx echo.Context, token string, expiresAt time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.conf.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.conf.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// startSession logs the user in: it creates a session and hands its token to the client.
func (s *Server) startSession(ctx echo.Context, usr user.User) (string, error) {
	sess, err := s.deps.Sessions.Start(ctx.Request().Context(), usr.ID)
	if err != nil {
		return "", err
	}
	token, err := s.tokens.sign(sess)
	if err != nil {
		return "", err
	}
	s.setSessionCookie(ctx, token, sess.ExpiresAt)
	return token, nil
}

// authenticate resolves the request's session into the principal and its capabilities.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, fromCookie := requestToken(ctx)
		if token == "" {
			return errUnauthorized
		}
		sid, err := s.tokens.parse(token)
		if err != nil {
			return errUnauthorized
		}

		rctx := ctx.Request().Context()
		sess, touched, err := s.deps.Sessions.Resolve(rctx, sid)
		if err != nil {
			if errors.Cause(err) == session.ErrNotFound {
				return errUnauthorized
			}
			return errors.Wrap(err, "resolving session")
		}
		if touched && fromCookie {
			s.setSessionCookie(ctx, token, sess.ExpiresAt)
		}

		usr, err := s.deps.UserSvc.GetByID(rctx, sess.UserID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return errUnauthorized
			}
			return errors.Wrap(err, "getting session user")
		}
		caps, err := s.deps.UserSvc.Capabilities(rctx, usr.ID)
		if err != nil {
			return errors.Wrap(err, "getting capabilities")
		}

		ctx.Set(contextSessionKey, sess)
		ctx.Set(contextUserKey, usr)
		ctx.Set(contextCapsKey, caps)
		return next(ctx)
	}
}

func contextUser(ctx echo.Context) user.User {
	usr, _ := ctx.Get(contextUserKey).(user.User)
	return usr
}

func contextCaps(ctx echo.Context) user.Capabilities {
	if caps, ok := ctx.Get(contextCapsKey).(user.Capabilities); ok {
		return caps
	}
	return user.CapabilitiesFor(user.RoleStudent)
}
