//go:build integration_test || all_tests

package test

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/2beens/fitlog/internal/blog"
)

func (s *IntegrationTestSuite) newBlog(token, title string) *blog.Blog {
	status, body := s.doRequest(http.MethodPost, "/api/v1/blogs", token, map[string]any{
		"title":   title,
		"content": "content of " + title,
		"tags":    []string{"fitness", "go"},
	})
	s.Require().Equal(http.StatusCreated, status, string(body))

	var resp blog.NewBlogResponse
	s.Require().NoError(json.Unmarshal(body, &resp))
	s.Require().NotNil(resp.Blog)
	s.Require().NotZero(resp.Blog.ID)
	return resp.Blog
}

func (s *IntegrationTestSuite) TestBlog_Flow() {
	author := s.register(newTestAccount())
	other := s.register(newTestAccount())

	first := s.newBlog(author.Token, "first post")
	second := s.newBlog(author.Token, "second post")
	s.Equal(author.User.ID, first.AuthorID)
	s.Equal([]string{"fitness", "go"}, first.Tags)

	// public reads
	status, body := s.doRequest(http.MethodGet, fmt.Sprintf("/api/v1/blogs/%d", first.ID), "", nil)
	s.Require().Equal(http.StatusOK, status)
	var fetched blog.Blog
	s.Require().NoError(json.Unmarshal(body, &fetched))
	s.Equal("first post", fetched.Title)
	s.Require().NotNil(fetched.Author)
	s.Equal(author.User.Name, fetched.Author.Name)

	status, body = s.doRequest(http.MethodGet, "/api/v1/blogs/page/1/size/1", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var page blog.PostsResponse
	s.Require().NoError(json.Unmarshal(body, &page))
	s.Require().Len(page.Posts, 1)
	s.GreaterOrEqual(page.Total, 2)
	// newest first
	s.GreaterOrEqual(page.Posts[0].ID, second.ID)

	status, body = s.doRequest(http.MethodPatch, fmt.Sprintf("/api/v1/blogs/%d/clap", first.ID), "", nil)
	s.Equal(http.StatusOK, status)
	s.Equal(fmt.Sprintf("updated:%d", first.ID), string(body))
	s.Equal(1, s.countRows(`SELECT claps FROM blog WHERE id = $1`, first.ID))

	// writes need a session, deletes need the author
	status, _ = s.doRequest(http.MethodPost, "/api/v1/blogs", "", map[string]string{"title": "t", "content": "c"})
	s.Equal(http.StatusUnauthorized, status)

	status, _ = s.doRequest(http.MethodDelete, fmt.Sprintf("/api/v1/blogs/%d", first.ID), other.Token, nil)
	s.Equal(http.StatusNotFound, status)

	status, body = s.doRequest(http.MethodDelete, fmt.Sprintf("/api/v1/blogs/%d", first.ID), author.Token, nil)
	s.Equal(http.StatusOK, status)
	s.Equal(fmt.Sprintf("deleted:%d", first.ID), string(body))

	status, _ = s.doRequest(http.MethodGet, fmt.Sprintf("/api/v1/blogs/%d", first.ID), "", nil)
	s.Equal(http.StatusNotFound, status)
	status, _ = s.doRequest(http.MethodPatch, fmt.Sprintf("/api/v1/blogs/%d/clap", first.ID), "", nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestBlog_Validation() {
	author := s.register(newTestAccount())

	status, _ := s.doRequest(http.MethodPost, "/api/v1/blogs", author.Token, map[string]string{"title": "no content"})
	s.Equal(http.StatusBadRequest, status)

	status, _ = s.doRequest(http.MethodGet, "/api/v1/blogs/page/0/size/10", "", nil)
	s.Equal(http.StatusBadRequest, status)
}
