package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bloombuddy/internal/dbx"
	"github.com/dmitrijs2005/bloombuddy/internal/server/repositories/plants"
	"github.com/dmitrijs2005/bloombuddy/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bloombuddy/internal/server/repositories/reminders"
	"github.com/dmitrijs2005/bloombuddy/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a handle, so services
// can use the same code with *sql.DB and inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Plants(db dbx.DBTX) plants.Repository
	Reminders(db dbx.DBTX) reminders.Repository
}
