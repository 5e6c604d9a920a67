package database

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"gatepost/internal/invites"
	"gatepost/internal/models"
)

func TestPersistentModels_AutoMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(PersistentModels()...))

	for _, table := range []string{"users", "invite_codes", "posts", "comments", "post_likes", "comment_likes"} {
		assert.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}

	assert.True(t, db.Migrator().HasIndex(&models.PostLike{}, "idx_post_user"))
	assert.True(t, db.Migrator().HasIndex(&models.CommentLike{}, "idx_comment_user"))
}

// The invite-code column envelope must agree with the generator's code
// length, in both the model tags and the SQL migration.
func TestInviteCodeColumnSizes(t *testing.T) {
	parse := func(model interface{}, field string) int {
		s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)
		f := s.LookUpField(field)
		require.NotNil(t, f)
		return f.Size
	}

	assert.Equal(t, invites.CodeLength, parse(&models.InviteCode{}, "Code"))
	assert.Equal(t, invites.CodeLength, parse(&models.User{}, "InviteCode"))
}
