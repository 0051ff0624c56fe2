//go:build integration_test || all_tests

package test

import (
	"net/http"
	"strings"
)

func (s *IntegrationTestSuite) TestAccount_RegisterLoginLogout() {
	account := newTestAccount()

	registered := s.register(account)
	s.Equal(strings.ToLower(account.Email), registered.User.Email)
	s.Equal(account.Name, registered.User.Name)
	s.Equal(1, s.countRows(`SELECT COUNT(*) FROM app_user WHERE email = $1`, strings.ToLower(account.Email)))

	// email is unique, whatever the case
	status, _ := s.doRequest(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"name":     "Other",
		"email":    strings.ToUpper(account.Email),
		"password": "password1",
	})
	s.Equal(http.StatusConflict, status)

	status, session := s.login(account.Email, account.Password)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(registered.User.ID, session.User.ID)
	s.NotEqual(registered.Token, session.Token)

	status, _ = s.login(account.Email, account.Password+"-nope")
	s.Equal(http.StatusForbidden, status)

	status, _ = s.login("nobody-"+account.Email, account.Password)
	s.Equal(http.StatusNotFound, status)

	// both sessions are valid until logged out
	status, _ = s.doRequest(http.MethodGet, "/api/v1/users/dashboard", registered.Token, nil)
	s.Equal(http.StatusOK, status)
	status, _ = s.doRequest(http.MethodGet, "/api/v1/users/dashboard", session.Token, nil)
	s.Equal(http.StatusOK, status)

	status, body := s.doRequest(http.MethodGet, "/api/v1/users/logout", session.Token, nil)
	s.Equal(http.StatusOK, status)
	s.Equal("logged-out", string(body))

	status, _ = s.doRequest(http.MethodGet, "/api/v1/users/dashboard", session.Token, nil)
	s.Equal(http.StatusUnauthorized, status)
	status, _ = s.doRequest(http.MethodGet, "/api/v1/users/logout", session.Token, nil)
	s.Equal(http.StatusUnauthorized, status)

	status, _ = s.doRequest(http.MethodGet, "/api/v1/users/dashboard", registered.Token, nil)
	s.Equal(http.StatusOK, status)
}

func (s *IntegrationTestSuite) TestAccount_InvalidRegistration() {
	status, _ := s.doRequest(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"name":     "Shorty",
		"email":    "shorty@fitlog.app",
		"password": "123",
	})
	s.Equal(http.StatusBadRequest, status)

	status, _ = s.doRequest(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"name":     "No At",
		"email":    "no-at.fitlog.app",
		"password": "password1",
	})
	s.Equal(http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestAccount_PublicAndProtected() {
	status, body := s.doRequest(http.MethodGet, "/", "", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("I'm OK, thanks ;)", string(body))

	status, body = s.doRequest(http.MethodGet, "/version", "", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("test-version-info", string(body))

	status, _ = s.doRequest(http.MethodGet, "/api/v1/users/dashboard", "", nil)
	s.Equal(http.StatusUnauthorized, status)
	status, _ = s.doRequest(http.MethodGet, "/api/v1/users/dashboard", "not-a-jwt", nil)
	s.Equal(http.StatusUnauthorized, status)
}
