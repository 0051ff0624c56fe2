package blog

import (
	"context"
	"sort"
	"sync"
)

var _ blogRepo = (*repoMock)(nil)

// repoMock keeps blogs in memory, ordered newest first like Repo.
type repoMock struct {
	Posts map[int]*Blog
	// nil means every author exists
	Authors map[int]bool
	nextID  int
	mutex   sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Posts:  make(map[int]*Blog),
		nextID: 1,
	}
}

func (r *repoMock) PostsCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.Posts)
}

func (r *repoMock) AddBlog(_ context.Context, blog *Blog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if blog.Title == "" || blog.Content == "" {
		return ErrBlogTitleOrContentEmpty
	}
	if r.Authors != nil && !r.Authors[blog.AuthorID] {
		return ErrAuthorNotFound
	}

	blog.ID = r.nextID
	r.nextID++
	r.Posts[blog.ID] = blog
	return nil
}

func (r *repoMock) BlogClapped(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	b, found := r.Posts[id]
	if !found {
		return ErrBlogNotFound
	}
	b.Claps++

	return nil
}

func (r *repoMock) DeleteBlog(_ context.Context, id, authorID int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	b, ok := r.Posts[id]
	if !ok || b.AuthorID != authorID {
		return ErrBlogNotFound
	}

	delete(r.Posts, id)

	return nil
}

func (r *repoMock) All(_ context.Context) ([]*Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.sorted(), nil
}

func (r *repoMock) BlogsCount(_ context.Context) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.Posts), nil
}

func (r *repoMock) GetBlogsPage(_ context.Context, page, size int) ([]*Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	allPosts := r.sorted()
	startIndex := (page - 1) * size
	// overflow
	if startIndex >= len(allPosts) {
		return []*Blog{}, nil
	}

	endIndex := min(startIndex+size, len(allPosts))
	return allPosts[startIndex:endIndex], nil
}

func (r *repoMock) GetBlog(_ context.Context, id int) (*Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	b, ok := r.Posts[id]
	if !ok {
		return nil, ErrBlogNotFound
	}
	return b, nil
}

func (r *repoMock) sorted() []*Blog {
	blogs := make([]*Blog, 0, len(r.Posts))
	for id := range r.Posts {
		blogs = append(blogs, r.Posts[id])
	}
	sort.Slice(blogs, func(i, j int) bool {
		if blogs[i].CreatedAt.Equal(blogs[j].CreatedAt) {
			return blogs[i].ID > blogs[j].ID
		}
		return blogs[i].CreatedAt.After(blogs[j].CreatedAt)
	})
	return blogs
}
