package mysql

import (
	"testing"

	"DocChat/backend/go/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	dsn := DSN(&config.MySQLConfig{Address: "db:3306", Username: "u", Password: "p", Database: "docchat"})
	assert.Equal(t, "u:p@tcp(db:3306)/docchat?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}
