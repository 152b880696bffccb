package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	m "github.com/amitalon123/Video-Streaming-Project/models"
	"github.com/amitalon123/Video-Streaming-Project/query"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicate          = errors.New("already exists")
)

// DBService is the single boundary to persistence. Handlers never build SQL;
// they hand over compiled filters/sorts and get domain values back.
type DBService interface {
	ListContent(f query.Filter, sorts []query.SortField, offset, limit int) ([]m.Content, error)
	CountContent(f query.Filter) (int, error)
	AllContent() ([]m.Content, error)
	FindContentByID(id int) (m.Content, error)
	InsertContent(c m.Content, genreIDs []int) (m.Content, error)
	UpdateContent(id int, upd m.ContentUpdate) (m.Content, error)
	DeleteContent(id int) error

	IncrementViews(id int) (int, error)
	IncrementLikes(id int) (int, error)
	DecrementLikes(id int) (int, error)

	PopularContent(limit int) ([]m.Content, error)
	NewestByGenre(genreID, limit int) ([]m.Content, error)

	ListGenres() ([]m.Genre, error)
	FindGenreByID(id int) (m.Genre, error)
	InsertGenre(name string) (m.Genre, error)
	UpdateGenre(id int, name string) (m.Genre, error)
	DeleteGenre(id int) error

	InsertNewUser(user m.User) (m.User, error)
	ValidateUser(username, password string) (m.User, error)

	ListProfiles(userID int) ([]m.Profile, error)
	InsertProfile(p m.Profile) (m.Profile, error)
	UpdateProfile(id, userID int, name, avatarURL string, isKid *bool) error
	DeleteProfile(id, userID int) error

	UpsertProgress(userID int, p m.ViewingProgress) (m.ViewingProgress, error)
	GetProgress(userID, profileID, contentID int) (*m.ViewingProgress, error)
}

type service struct {
	db *sql.DB
}

// Connect opens the store. With TURSO_DB_NAME set it talks to Turso,
// otherwise DB_URL is used as the DSN directly (a local sqlite file in dev).
func Connect() (*sql.DB, error) {
	url := os.Getenv("DB_URL")
	if name := os.Getenv("TURSO_DB_NAME"); name != "" {
		url = "libsql://" + name + ".turso.io?authToken=" + os.Getenv("TURSO_AUTH_TOKEN")
	}
	if url == "" {
		return nil, errors.New("no database configured: set TURSO_DB_NAME or DB_URL")
	}
	conn, err := sql.Open("libsql", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return conn, nil
}

// New wraps an open connection pool. Tests pass their own in-memory pool.
func New(conn *sql.DB) DBService {
	return &service{db: conn}
}

// NewDBService connects using the environment and wraps the pool.
func NewDBService() (DBService, error) {
	conn, err := Connect()
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

const contentSelect = `
	SELECT c.id, c.type, c.title, c.description, c.release_year, c.rating,
	       c.views, c.likes, c.created_at,
	       GROUP_CONCAT(g.id) AS genre_ids, GROUP_CONCAT(g.name) AS genre_names
	FROM contents c
	LEFT JOIN content_genres cg ON c.id = cg.content_id
	LEFT JOIN genres g ON cg.genre_id = g.id`

var sortColumns = map[query.Field]string{
	query.FieldCreatedAt:   "c.created_at",
	query.FieldTitle:       "c.title",
	query.FieldReleaseYear: "c.release_year",
	query.FieldRating:      "c.rating",
	query.FieldViews:       "c.views",
	query.FieldLikes:       "c.likes",
}

// buildContentWhere renders the compiled filter as a WHERE clause. Only the
// clauses actually present in the filter appear; an empty filter renders
// nothing and the query matches every row. The search clause delegates to
// the FTS index rather than scanning titles.
func buildContentWhere(f query.Filter) (string, []interface{}) {
	conds := []string{}
	args := []interface{}{}

	if f.Type != "" {
		conds = append(conds, "c.type = ?")
		args = append(args, f.Type)
	}
	if f.Search != "" {
		conds = append(conds, "c.id IN (SELECT rowid FROM contents_fts WHERE contents_fts MATCH ?)")
		args = append(args, f.Search)
	}
	if f.Year != nil {
		conds = append(conds, "c.release_year = ?")
		args = append(args, *f.Year)
	} else {
		if f.YearFrom != nil {
			conds = append(conds, "c.release_year >= ?")
			args = append(args, *f.YearFrom)
		}
		if f.YearTo != nil {
			conds = append(conds, "c.release_year <= ?")
			args = append(args, *f.YearTo)
		}
	}
	if f.GenreID != nil {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM content_genres cg2
			WHERE cg2.content_id = c.id AND cg2.genre_id = ?)`)
		args = append(args, *f.GenreID)
	}
	if f.MinRating != nil {
		conds = append(conds, "c.rating >= ?")
		args = append(args, *f.MinRating)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(sorts []query.SortField) string {
	if len(sorts) == 0 {
		sorts = query.ResolveSort("")
	}
	parts := make([]string, len(sorts))
	for i, s := range sorts {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts[i] = sortColumns[s.Field] + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContent(row rowScanner) (m.Content, error) {
	var c m.Content
	var genreIDs, genreNames sql.NullString
	err := row.Scan(
		&c.ID, &c.Type, &c.Title, &c.Description, &c.ReleaseYear,
		&c.Rating, &c.Views, &c.Likes, &c.CreatedAt,
		&genreIDs, &genreNames,
	)
	if err != nil {
		return m.Content{}, err
	}
	c.Genres = parseGenres(genreIDs, genreNames)
	return c, nil
}

func (s *service) queryContent(q string, args ...interface{}) ([]m.Content, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contents := []m.Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

func (s *service) ListContent(f query.Filter, sorts []query.SortField, offset, limit int) ([]m.Content, error) {
	where, args := buildContentWhere(f)
	q := contentSelect + where + " GROUP BY c.id" + orderClause(sorts) + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	return s.queryContent(q, args...)
}

func (s *service) CountContent(f query.Filter) (int, error) {
	where, args := buildContentWhere(f)
	var total int
	err := s.db.QueryRow("SELECT COUNT(*) FROM contents c"+where, args...).Scan(&total)
	return total, err
}

// AllContent loads the full catalog with genres resolved, in a stable order.
// The recommendation pipeline runs over this snapshot.
func (s *service) AllContent() ([]m.Content, error) {
	return s.queryContent(contentSelect + " GROUP BY c.id ORDER BY c.id")
}

func (s *service) FindContentByID(id int) (m.Content, error) {
	q := contentSelect + " WHERE c.id = ? GROUP BY c.id"
	c, err := scanContent(s.db.QueryRow(q, id))
	if err == sql.ErrNoRows {
		return m.Content{}, ErrNotFound
	}
	if err != nil {
		return m.Content{}, err
	}
	return c, nil
}

// ensureGenresExist guards the invariant that content only references
// existing genres.
func ensureGenresExist(tx *sql.Tx, genreIDs []int) error {
	for _, id := range genreIDs {
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM genres WHERE id = ?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return &m.ValidationError{Fields: []string{"genres"}}
		}
	}
	return nil
}

func replaceGenreLinks(tx *sql.Tx, contentID int, genreIDs []int) error {
	if _, err := tx.Exec("DELETE FROM content_genres WHERE content_id = ?", contentID); err != nil {
		return err
	}
	for _, gid := range genreIDs {
		if _, err := tx.Exec("INSERT INTO content_genres (content_id, genre_id) VALUES (?, ?)", contentID, gid); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) InsertContent(c m.Content, genreIDs []int) (m.Content, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return m.Content{}, err
	}

	if err := ensureGenresExist(tx, genreIDs); err != nil {
		tx.Rollback()
		return m.Content{}, err
	}

	res, err := tx.Exec(`
		INSERT INTO contents (type, title, description, release_year, rating, views, likes)
		VALUES (?, ?, ?, ?, ?, 0, 0)`,
		c.Type, c.Title, c.Description, c.ReleaseYear, c.Rating)
	if err != nil {
		tx.Rollback()
		return m.Content{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return m.Content{}, err
	}
	for _, gid := range genreIDs {
		if _, err := tx.Exec("INSERT INTO content_genres (content_id, genre_id) VALUES (?, ?)", id, gid); err != nil {
			tx.Rollback()
			return m.Content{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return m.Content{}, err
	}
	return s.FindContentByID(int(id))
}

func (s *service) UpdateContent(id int, upd m.ContentUpdate) (m.Content, error) {
	updates := []string{}
	args := []interface{}{}

	if upd.Type != nil {
		updates = append(updates, "type = ?")
		args = append(args, *upd.Type)
	}
	if upd.Title != nil {
		updates = append(updates, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		updates = append(updates, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.ReleaseYear != nil {
		updates = append(updates, "release_year = ?")
		args = append(args, *upd.ReleaseYear)
	}
	if upd.Rating != nil {
		updates = append(updates, "rating = ?")
		args = append(args, *upd.Rating)
	}
	if len(updates) == 0 && upd.GenreIDs == nil {
		return m.Content{}, errors.New("no fields to update")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return m.Content{}, err
	}

	if len(updates) > 0 {
		args = append(args, id)
		q := fmt.Sprintf("UPDATE contents SET %s WHERE id = ?", strings.Join(updates, ", "))
		res, err := tx.Exec(q, args...)
		if err != nil {
			tx.Rollback()
			return m.Content{}, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return m.Content{}, err
		}
		if affected == 0 {
			tx.Rollback()
			return m.Content{}, ErrNotFound
		}
	} else {
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM contents WHERE id = ?", id).Scan(&exists); err != nil {
			tx.Rollback()
			return m.Content{}, err
		}
		if exists == 0 {
			tx.Rollback()
			return m.Content{}, ErrNotFound
		}
	}

	if upd.GenreIDs != nil {
		if err := ensureGenresExist(tx, *upd.GenreIDs); err != nil {
			tx.Rollback()
			return m.Content{}, err
		}
		if err := replaceGenreLinks(tx, id, *upd.GenreIDs); err != nil {
			tx.Rollback()
			return m.Content{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return m.Content{}, err
	}
	return s.FindContentByID(id)
}

func (s *service) DeleteContent(id int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM content_genres WHERE content_id = ?", id); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec("DELETE FROM viewing_progress WHERE content_id = ?", id); err != nil {
		tx.Rollback()
		return err
	}
	res, err := tx.Exec("DELETE FROM contents WHERE id = ?", id)
	if err != nil {
		tx.Rollback()
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return ErrNotFound
	}
	return tx.Commit()
}

// Counter updates are single atomic statements so concurrent requests on the
// same item cannot lose an increment. The fresh value is read back only for
// the response body.

func (s *service) bumpCounter(id int, set, column string) (int, error) {
	res, err := s.db.Exec("UPDATE contents SET "+set+" WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrNotFound
	}
	var value int
	err = s.db.QueryRow("SELECT "+column+" FROM contents WHERE id = ?", id).Scan(&value)
	return value, err
}

func (s *service) IncrementViews(id int) (int, error) {
	return s.bumpCounter(id, "views = views + 1", "views")
}

func (s *service) IncrementLikes(id int) (int, error) {
	return s.bumpCounter(id, "likes = likes + 1", "likes")
}

// DecrementLikes clamps at zero; likes never go negative.
func (s *service) DecrementLikes(id int) (int, error) {
	return s.bumpCounter(id, "likes = MAX(0, likes - 1)", "likes")
}

func (s *service) PopularContent(limit int) ([]m.Content, error) {
	q := contentSelect + " GROUP BY c.id ORDER BY c.views DESC, c.likes DESC LIMIT ?"
	return s.queryContent(q, limit)
}

func (s *service) NewestByGenre(genreID, limit int) ([]m.Content, error) {
	q := contentSelect + `
		WHERE EXISTS (
			SELECT 1 FROM content_genres cg2
			WHERE cg2.content_id = c.id AND cg2.genre_id = ?)
		GROUP BY c.id
		ORDER BY c.release_year DESC, c.created_at DESC
		LIMIT ?`
	return s.queryContent(q, genreID, limit)
}

func (s *service) ListGenres() ([]m.Genre, error) {
	rows, err := s.db.Query("SELECT id, name FROM genres ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	genres := []m.Genre{}
	for rows.Next() {
		var g m.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (s *service) FindGenreByID(id int) (m.Genre, error) {
	var g m.Genre
	err := s.db.QueryRow("SELECT id, name FROM genres WHERE id = ?", id).Scan(&g.ID, &g.Name)
	if err == sql.ErrNoRows {
		return m.Genre{}, ErrNotFound
	}
	if err != nil {
		return m.Genre{}, err
	}
	return g, nil
}

func (s *service) InsertGenre(name string) (m.Genre, error) {
	res, err := s.db.Exec("INSERT INTO genres (name) VALUES (?)", name)
	if err != nil {
		if isUniqueViolation(err) {
			return m.Genre{}, ErrDuplicate
		}
		return m.Genre{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return m.Genre{}, err
	}
	return m.Genre{ID: int(id), Name: name}, nil
}

func (s *service) UpdateGenre(id int, name string) (m.Genre, error) {
	res, err := s.db.Exec("UPDATE genres SET name = ? WHERE id = ?", name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return m.Genre{}, ErrDuplicate
		}
		return m.Genre{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return m.Genre{}, err
	}
	if affected == 0 {
		return m.Genre{}, ErrNotFound
	}
	return m.Genre{ID: id, Name: name}, nil
}

func (s *service) DeleteGenre(id int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM content_genres WHERE genre_id = ?", id); err != nil {
		tx.Rollback()
		return err
	}
	res, err := tx.Exec("DELETE FROM genres WHERE id = ?", id)
	if err != nil {
		tx.Rollback()
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *service) InsertNewUser(user m.User) (m.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return m.User{}, err
	}

	res, err := s.db.Exec(
		"INSERT INTO users (username, email, password) VALUES (?, ?, ?)",
		user.Username, user.Email, hashedPassword)
	if err != nil {
		if isUniqueViolation(err) {
			return m.User{}, ErrDuplicate
		}
		return m.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return m.User{}, err
	}
	user.ID = int(id)
	user.Password = ""
	return user, nil
}

func (s *service) ValidateUser(username, password string) (m.User, error) {
	var user m.User
	err := s.db.QueryRow(
		"SELECT id, username, email, password FROM users WHERE username = ?",
		username).Scan(&user.ID, &user.Username, &user.Email, &user.Password)
	if err == sql.ErrNoRows {
		return m.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return m.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return m.User{}, ErrInvalidCredentials
	}
	user.Password = ""
	return user, nil
}

func (s *service) ListProfiles(userID int) ([]m.Profile, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name, avatar_url, is_kid, created_at
		FROM profiles WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []m.Profile{}
	for rows.Next() {
		var p m.Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.AvatarURL, &p.IsKid, &p.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *service) InsertProfile(p m.Profile) (m.Profile, error) {
	res, err := s.db.Exec(
		"INSERT INTO profiles (user_id, name, avatar_url, is_kid) VALUES (?, ?, ?, ?)",
		p.UserID, p.Name, p.AvatarURL, p.IsKid)
	if err != nil {
		if isUniqueViolation(err) {
			return m.Profile{}, ErrDuplicate
		}
		return m.Profile{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return m.Profile{}, err
	}
	p.ID = int(id)
	return p, nil
}

func (s *service) UpdateProfile(id, userID int, name, avatarURL string, isKid *bool) error {
	updates := []string{}
	args := []interface{}{}

	if name != "" {
		updates = append(updates, "name = ?")
		args = append(args, name)
	}
	if avatarURL != "" {
		updates = append(updates, "avatar_url = ?")
		args = append(args, avatarURL)
	}
	if isKid != nil {
		updates = append(updates, "is_kid = ?")
		args = append(args, *isKid)
	}
	if len(updates) == 0 {
		return errors.New("no fields to update")
	}

	args = append(args, id, userID)
	q := fmt.Sprintf("UPDATE profiles SET %s WHERE id = ? AND user_id = ?", strings.Join(updates, ", "))
	res, err := s.db.Exec(q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *service) DeleteProfile(id, userID int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM viewing_progress WHERE profile_id = ?", id); err != nil {
		tx.Rollback()
		return err
	}
	res, err := tx.Exec("DELETE FROM profiles WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		tx.Rollback()
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return ErrNotFound
	}
	return tx.Commit()
}

// profileBelongsTo verifies ownership before progress reads/writes.
func (s *service) profileBelongsTo(profileID, userID int) error {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM profiles WHERE id = ? AND user_id = ?",
		profileID, userID).Scan(&count)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *service) UpsertProgress(userID int, p m.ViewingProgress) (m.ViewingProgress, error) {
	if err := s.profileBelongsTo(p.ProfileID, userID); err != nil {
		return m.ViewingProgress{}, err
	}

	if p.PositionSeconds < 0 {
		p.PositionSeconds = 0
	}
	if p.DurationSeconds < 0 {
		p.DurationSeconds = 0
	}

	_, err := s.db.Exec(`
		INSERT INTO viewing_progress (profile_id, content_id, position_seconds, duration_seconds, is_completed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(profile_id, content_id) DO UPDATE SET
			position_seconds = excluded.position_seconds,
			duration_seconds = excluded.duration_seconds,
			is_completed = excluded.is_completed,
			updated_at = datetime('now')`,
		p.ProfileID, p.ContentID, p.PositionSeconds, p.DurationSeconds, p.IsCompleted)
	if err != nil {
		return m.ViewingProgress{}, err
	}

	stored, err := s.GetProgress(userID, p.ProfileID, p.ContentID)
	if err != nil {
		return m.ViewingProgress{}, err
	}
	if stored == nil {
		return m.ViewingProgress{}, ErrNotFound
	}
	return *stored, nil
}

// GetProgress returns nil without error when no progress is recorded yet.
func (s *service) GetProgress(userID, profileID, contentID int) (*m.ViewingProgress, error) {
	if err := s.profileBelongsTo(profileID, userID); err != nil {
		return nil, err
	}

	var p m.ViewingProgress
	err := s.db.QueryRow(`
		SELECT id, profile_id, content_id, position_seconds, duration_seconds, is_completed, updated_at
		FROM viewing_progress WHERE profile_id = ? AND content_id = ?`,
		profileID, contentID).Scan(
		&p.ID, &p.ProfileID, &p.ContentID, &p.PositionSeconds,
		&p.DurationSeconds, &p.IsCompleted, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
