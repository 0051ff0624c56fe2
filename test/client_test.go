//go:build integration_test || all_tests

package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/2beens/fitlog/internal/auth"
)

// doRequest sends body as JSON when set; token, when set, goes in as the bearer token.
func (s *IntegrationTestSuite) doRequest(method, path, token string, body any) (int, []byte) {
	var reqBody io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reqBody = bytes.NewBuffer(bodyJson)
	}

	req, err := http.NewRequest(method, serverEndpoint+path, reqBody)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	return resp.StatusCode, respBytes
}

type testAccount struct {
	Name     string
	Email    string
	Password string
}

func newTestAccount() testAccount {
	return testAccount{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: gofakeit.Password(true, true, true, false, false, 12),
	}
}

func (s *IntegrationTestSuite) register(account testAccount) *auth.Session {
	status, respBytes := s.doRequest(http.MethodPost, "/api/v1/users/register", "", map[string]any{
		"name":     account.Name,
		"email":    account.Email,
		"password": account.Password,
	})
	require.Equal(s.T(), http.StatusCreated, status, string(respBytes))

	var session auth.Session
	require.NoError(s.T(), json.Unmarshal(respBytes, &session))
	require.NotEmpty(s.T(), session.Token)
	require.NotNil(s.T(), session.User)
	return &session
}

func (s *IntegrationTestSuite) login(email, password string) (int, *auth.Session) {
	status, respBytes := s.doRequest(http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusOK {
		return status, nil
	}

	var session auth.Session
	require.NoError(s.T(), json.Unmarshal(respBytes, &session))
	return status, &session
}

func (s *IntegrationTestSuite) countRows(query string, args ...any) int {
	var count int
	require.NoError(s.T(), s.DB.QueryRow(query, args...).Scan(&count), fmt.Sprintf("query: %s", query))
	return count
}
