// Package memory is a process-local storage driver with the same semantics as
// the postgres one. It backs local runs and tests.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookly/internal/models"
	"bookly/internal/storage"
)

type bookTag struct {
	bookID uuid.UUID
	tagID  uuid.UUID
}

type state struct {
	users    map[uuid.UUID]models.User
	books    map[uuid.UUID]models.Book
	reviews  map[uuid.UUID]models.Review
	tags     map[uuid.UUID]models.Tag
	bookTags map[bookTag]struct{}
}

func (s state) clone() state {
	return state{
		users:    maps.Clone(s.users),
		books:    maps.Clone(s.books),
		reviews:  maps.Clone(s.reviews),
		tags:     maps.Clone(s.tags),
		bookTags: maps.Clone(s.bookTags),
	}
}

type Storage struct {
	// txMu serializes units of work; mu guards data.
	txMu sync.Mutex
	mu   sync.RWMutex
	data state
	now  func() time.Time
	last time.Time
}

func New() *Storage {
	return &Storage{
		data: state{
			users:    make(map[uuid.UUID]models.User),
			books:    make(map[uuid.UUID]models.Book),
			reviews:  make(map[uuid.UUID]models.Review),
			tags:     make(map[uuid.UUID]models.Tag),
			bookTags: make(map[bookTag]struct{}),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

type txKey struct{}

// WithTx runs fn exclusively and restores the previous state if fn fails or panics.
func (s *Storage) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

// tick returns a strictly increasing timestamp so listings have a stable order.
// Callers hold mu.
func (s *Storage) tick() time.Time {
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t

	return t
}

func (s *Storage) restore(snapshot state) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

func (s *Storage) SaveUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.data.users {
		if u.Email == user.Email || u.Username == user.Username {
			return models.User{}, storage.ErrUserExists
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = s.tick()
	user.UpdatedAt = user.CreatedAt

	s.data.users[user.ID] = user

	return user, nil
}

func (s *Storage) UserByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.data.users[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return user, nil
}

func (s *Storage) UserByEmail(_ context.Context, email string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

func (s *Storage) UserByUsername(_ context.Context, username string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *Storage) findUser(match func(models.User) bool) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.data.users {
		if match(u) {
			return u, nil
		}
	}

	return models.User{}, storage.ErrUserNotFound
}

// UsersExcludingRole lists users whose role differs from role, oldest first.
func (s *Storage) UsersExcludingRole(_ context.Context, role models.Role) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.data.users))
	for _, u := range s.data.users {
		if u.Role != role {
			users = append(users, u)
		}
	}

	slices.SortFunc(users, func(a, b models.User) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return users, nil
}

func (s *Storage) UpdateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data.users[user.ID]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	for id, u := range s.data.users {
		if id != user.ID && (u.Email == user.Email || u.Username == user.Username) {
			return models.User{}, storage.ErrUserExists
		}
	}

	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = s.tick()

	s.data.users[user.ID] = user

	return user, nil
}

// DeleteUser removes the user and detaches their books and reviews.
func (s *Storage) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.users[id]; !ok {
		return storage.ErrUserNotFound
	}

	delete(s.data.users, id)

	for bid, b := range s.data.books {
		if b.UserID != nil && *b.UserID == id {
			b.UserID = nil
			s.data.books[bid] = b
		}
	}

	for rid, r := range s.data.reviews {
		if r.UserID != nil && *r.UserID == id {
			r.UserID = nil
			s.data.reviews[rid] = r
		}
	}

	return nil
}

func (s *Storage) SaveBook(_ context.Context, book models.Book) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	book.CreatedAt = s.tick()
	book.UpdatedAt = book.CreatedAt

	s.data.books[book.ID] = book

	return book, nil
}

func (s *Storage) Book(_ context.Context, id uuid.UUID) (models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.data.books[id]
	if !ok {
		return models.Book{}, storage.ErrBookNotFound
	}

	return book, nil
}

// Books lists all books, newest first.
func (s *Storage) Books(_ context.Context) ([]models.Book, error) {
	return s.filterBooks(func(models.Book) bool { return true }), nil
}

func (s *Storage) BooksByUser(_ context.Context, userID uuid.UUID) ([]models.Book, error) {
	return s.filterBooks(func(b models.Book) bool { return b.UserID != nil && *b.UserID == userID }), nil
}

func (s *Storage) filterBooks(match func(models.Book) bool) []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]models.Book, 0)
	for _, b := range s.data.books {
		if match(b) {
			books = append(books, b)
		}
	}

	slices.SortFunc(books, func(a, b models.Book) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return books
}

func (s *Storage) UpdateBook(_ context.Context, book models.Book) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data.books[book.ID]
	if !ok {
		return models.Book{}, storage.ErrBookNotFound
	}

	book.CreatedAt = current.CreatedAt
	book.UpdatedAt = s.tick()

	s.data.books[book.ID] = book

	return book, nil
}

// DeleteBook removes the book, its tag links and detaches its reviews.
func (s *Storage) DeleteBook(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.books[id]; !ok {
		return storage.ErrBookNotFound
	}

	delete(s.data.books, id)

	for link := range s.data.bookTags {
		if link.bookID == id {
			delete(s.data.bookTags, link)
		}
	}

	for rid, r := range s.data.reviews {
		if r.BookID != nil && *r.BookID == id {
			r.BookID = nil
			s.data.reviews[rid] = r
		}
	}

	return nil
}

func (s *Storage) SaveReview(_ context.Context, review models.Review) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = s.tick()
	review.UpdatedAt = review.CreatedAt

	s.data.reviews[review.ID] = review

	return review, nil
}

func (s *Storage) Review(_ context.Context, id uuid.UUID) (models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	review, ok := s.data.reviews[id]
	if !ok {
		return models.Review{}, storage.ErrReviewNotFound
	}

	return review, nil
}

func (s *Storage) Reviews(_ context.Context) ([]models.Review, error) {
	return s.filterReviews(func(models.Review) bool { return true }), nil
}

func (s *Storage) ReviewsByBook(_ context.Context, bookID uuid.UUID) ([]models.Review, error) {
	return s.filterReviews(func(r models.Review) bool { return r.BookID != nil && *r.BookID == bookID }), nil
}

func (s *Storage) ReviewsByUser(_ context.Context, userID uuid.UUID) ([]models.Review, error) {
	return s.filterReviews(func(r models.Review) bool { return r.UserID != nil && *r.UserID == userID }), nil
}

func (s *Storage) filterReviews(match func(models.Review) bool) []models.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := make([]models.Review, 0)
	for _, r := range s.data.reviews {
		if match(r) {
			reviews = append(reviews, r)
		}
	}

	slices.SortFunc(reviews, func(a, b models.Review) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return reviews
}

func (s *Storage) UpdateReview(_ context.Context, review models.Review) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data.reviews[review.ID]
	if !ok {
		return models.Review{}, storage.ErrReviewNotFound
	}

	review.CreatedAt = current.CreatedAt
	review.UpdatedAt = s.tick()

	s.data.reviews[review.ID] = review

	return review, nil
}

func (s *Storage) DeleteReview(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.reviews[id]; !ok {
		return storage.ErrReviewNotFound
	}

	delete(s.data.reviews, id)

	return nil
}

func (s *Storage) Tag(_ context.Context, id uuid.UUID) (models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tag, ok := s.data.tags[id]
	if !ok {
		return models.Tag{}, storage.ErrTagNotFound
	}

	return tag, nil
}

func (s *Storage) TagByName(_ context.Context, name string) (models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.data.tags {
		if t.Name == name {
			return t, nil
		}
	}

	return models.Tag{}, storage.ErrTagNotFound
}

func (s *Storage) SaveTag(_ context.Context, tag models.Tag) (models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	tag.CreatedAt = s.tick()

	s.data.tags[tag.ID] = tag

	return tag, nil
}

// BookTags lists the tags attached to a book ordered by name.
func (s *Storage) BookTags(_ context.Context, bookID uuid.UUID) ([]models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]models.Tag, 0)
	for link := range s.data.bookTags {
		if link.bookID == bookID {
			tags = append(tags, s.data.tags[link.tagID])
		}
	}

	slices.SortFunc(tags, func(a, b models.Tag) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return tags, nil
}

// AddBookTag links a tag to a book. Linking twice is a no-op.
func (s *Storage) AddBookTag(_ context.Context, bookID, tagID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.bookTags[bookTag{bookID: bookID, tagID: tagID}] = struct{}{}

	return nil
}

func (s *Storage) RemoveBookTag(_ context.Context, bookID, tagID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link := bookTag{bookID: bookID, tagID: tagID}
	if _, ok := s.data.bookTags[link]; !ok {
		return storage.ErrTagNotFound
	}

	delete(s.data.bookTags, link)

	return nil
}
