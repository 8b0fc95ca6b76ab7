package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/session"
)

const (
	contextTokenKey   = "accountToken"
	contextSessionKey = "session"
)

// Claims represents the authorization claims transmitted via a JWT. The Act*
// fields carry the platform owner's impersonation state so the acting
// role/scope survives across requests without server-side session storage.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	SchoolID     string `json:"school_id,omitempty"`

	ActRole      string `json:"act_role,omitempty"`
	ActSchoolID  string `json:"act_school_id,omitempty"`
	ActAccountID string `json:"act_account_id,omitempty"`
}

type jwtAuth struct {
	conf *core.Config
	svc  account.ServiceInterface
	cfg  middleware.JWTConfig
}

func newJWTAuth(conf *core.Config, svc account.ServiceInterface) *jwtAuth {
	return &jwtAuth{
		conf: conf,
		svc:  svc,
		cfg: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

func (a *jwtAuth) config() middleware.JWTConfig { return a.cfg }

// GetSessionClaims encodes a session into JWT claims.
func GetSessionClaims(conf *core.Config, sess session.Session, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   sess.Account.ID,
			Audience:  "Lopay",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         sess.Account.Name,
		Email:        sess.Account.Email,
		Role:         sess.Account.Role,
		SchoolID:     sess.Account.SchoolID,
	}
	if sess.IsImpersonating() {
		claims.ActRole = sess.Role
		claims.ActSchoolID = sess.SchoolID
		claims.ActAccountID = sess.ImpersonatedAccountID
	}
	return claims
}

func (a *jwtAuth) authenticate(ctx context.Context, email, pwd string) (*Claims, error) {
	acct, err := a.svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding account by email")
	}
	if err = acct.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !acct.IsActive {
		return nil, errAccountDeactivated
	}
	acct, err = a.svc.SetLastLogin(ctx, acct)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetSessionClaims(a.conf, session.New(acct)), nil
}

// GenerateToken generates a signed JWT token string representing the session Claims.
func (a *jwtAuth) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.cfg.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.cfg.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextSession rebuilds the effective session from the request claims. The
// owner's impersonation claims are only honored when the signed-in account is
// still the platform owner, and a target pointing at a deleted account is
// dropped rather than carried stale.
func (a *jwtAuth) contextSession(ctx echo.Context, clms ...Claims) (session.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return session.Session{}, errors.Wrap(err, "getting context claims")
		}
	}

	acct, err := a.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "finding account by ID")
	}

	sess := session.New(acct)
	if claims.ActRole != "" && acct.IsOwner() {
		sess.Role = claims.ActRole
		sess.SchoolID = claims.ActSchoolID
		sess.ImpersonatedAccountID = claims.ActAccountID
	}
	sess.ClearDeletedTarget(func(id string) bool {
		_, err := a.svc.GetByID(ctx.Request().Context(), id)
		return err == nil
	})

	ctx.Set(contextSessionKey, sess)
	return sess, nil
}

func (a *jwtAuth) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	sess, err := a.contextSession(ctx, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context session")
	}

	// check if account is still active
	if !sess.Account.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetSessionClaims(a.conf, sess, claims.OrigIssuedAt)
	token, err := a.GenerateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}
