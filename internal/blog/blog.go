package blog

import (
	"errors"
	"time"
)

var (
	ErrBlogNotFound            = errors.New("blog not found")
	ErrBlogTitleOrContentEmpty = errors.New("blog title or content empty")
	ErrAuthorNotFound          = errors.New("blog author not found")
)

type Author struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Img   *string `json:"img"`
}

type Blog struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int       `json:"authorId"`
	Author    *Author   `json:"author,omitempty"`
	Tags      []string  `json:"tags"`
	Claps     int       `json:"claps"` // basically blog likes
	CreatedAt time.Time `json:"createdAt"`
}
