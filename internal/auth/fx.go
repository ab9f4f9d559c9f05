package auth

import (
	"github.com/smallbiznis/invoicedesk/internal/auth/oauth"
	"github.com/smallbiznis/invoicedesk/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	session.Module,
	oauth.Module,
)
