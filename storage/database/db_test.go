package database

import (
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoleQuery(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		want     string
	}{
		{
			name:     "plain",
			user:     "maendeleo",
			password: "secret",
			want:     `CREATE ROLE "maendeleo" LOGIN CREATEDB ENCRYPTED PASSWORD 'secret'`,
		},
		{
			name:     "quotes are escaped",
			user:     `app"; DROP ROLE admin; --`,
			password: "it's",
			want:     `CREATE ROLE "app""; DROP ROLE admin; --" LOGIN CREATEDB ENCRYPTED PASSWORD 'it''s'`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, createRoleQuery(tt.user, tt.password))
		})
	}
}

func TestCreateDatabaseQuery(t *testing.T) {
	assert.Equal(t, `CREATE DATABASE "maendeleo"`, createDatabaseQuery("maendeleo"))
	assert.Equal(t, `CREATE DATABASE "School-DB"`, createDatabaseQuery("School-DB"))
	assert.Equal(t, `CREATE DATABASE "x""y"`, createDatabaseQuery(`x"y`))
}

func TestPing_givesUp(t *testing.T) {
	// nothing listens on port 1
	db, err := sqlx.Open("postgres", "postgres://app:pw@127.0.0.1:1/maendeleo?sslmode=disable&connect_timeout=1")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	err = ping(db, 1)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "no answer after 1 attempts: "), err.Error())
}
