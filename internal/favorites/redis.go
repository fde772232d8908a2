package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/vadimtrunov/PopularMovies/internal/metrics"
	"github.com/vadimtrunov/PopularMovies/internal/movie"
)

const (
	redisKeyPrefix = "popularmovies:favorite:"
	redisIndexKey  = "popularmovies:favorites"
)

// RedisStore keeps one hash per favorite plus a sorted-set index scored by
// movie ID. Membership in the index is what makes a movie a favorite.
type RedisStore struct {
	notifier
	client *redis.Client
	logger *slog.Logger
}

// OpenRedis connects to url, which may be a redis:// URL or a bare host:port.
func OpenRedis(ctx context.Context, url string, logger *slog.Logger) (*RedisStore, error) {
	if url == "" {
		return nil, fmt.Errorf("favorites: redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return newRedisStore(client, logger), nil
}

func newRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func redisKey(id int) string {
	return redisKeyPrefix + strconv.Itoa(id)
}

// Close closes subscriber channels and the client.
func (s *RedisStore) Close() error {
	s.closeAll()
	return s.client.Close()
}

// insertScript claims the index slot with ZADD NX and writes the hash in the
// same server-side step, so a row is never indexed without its fields.
// KEYS: index, hash. ARGV: id, then field/value pairs. Returns 1 when added.
var insertScript = redis.NewScript(`
if redis.call('ZADD', KEYS[1], 'NX', ARGV[1], ARGV[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[2], unpack(ARGV, 2))
return 1
`)

// Insert adds a favorite atomically, failing with ErrDuplicate if the ID
// exists.
func (s *RedisStore) Insert(ctx context.Context, m movie.Movie) error {
	m = row(m)
	id := strconv.Itoa(m.ID)
	added, err := insertScript.Run(ctx, s.client, []string{redisIndexKey, redisKey(m.ID)},
		id,
		"original_title", m.OriginalTitle,
		"title", m.Title,
		"poster_path", m.PosterPath,
		"backdrop_path", m.BackdropPath,
		"overview", m.Overview,
		"vote_average", strconv.FormatFloat(m.Rating, 'f', -1, 64),
		"release_date", m.ReleaseDate,
	).Int()
	if err != nil {
		metrics.RecordFavoriteOp(DriverRedis, "insert", metrics.OutcomeError)
		return fmt.Errorf("insert favorite %d: %w", m.ID, err)
	}
	if added == 0 {
		metrics.RecordFavoriteOp(DriverRedis, "insert", metrics.OutcomeConflict)
		return fmt.Errorf("insert favorite %d: %w", m.ID, ErrDuplicate)
	}

	metrics.RecordFavoriteOp(DriverRedis, "insert", metrics.OutcomeOK)
	s.logger.Debug("favorite added", slog.Int("movie_id", m.ID))
	s.notify()
	return nil
}

// Delete removes the index entry and the hash in one transaction and reports
// how many rows were removed.
func (s *RedisStore) Delete(ctx context.Context, id int) (int64, error) {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, redisIndexKey, id)
		pipe.Del(ctx, redisKey(id))
		return nil
	})
	if err != nil {
		metrics.RecordFavoriteOp(DriverRedis, "delete", metrics.OutcomeError)
		return 0, fmt.Errorf("delete favorite %d: %w", id, err)
	}
	n := removed.Val()
	if n == 0 {
		metrics.RecordFavoriteOp(DriverRedis, "delete", metrics.OutcomeNoop)
		return 0, nil
	}

	metrics.RecordFavoriteOp(DriverRedis, "delete", metrics.OutcomeOK)
	s.logger.Debug("favorite removed", slog.Int("movie_id", id))
	s.notify()
	return n, nil
}

// Query returns all favorites ordered by ID, or the one matching id.
func (s *RedisStore) Query(ctx context.Context, id *int) ([]movie.Movie, error) {
	var ids []int
	if id != nil {
		ok, err := s.Exists(ctx, *id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		ids = []int{*id}
	} else {
		members, err := s.client.ZRangeByScore(ctx, redisIndexKey, &redis.ZRangeBy{Min: "-inf", Max: "+inf"}).Result()
		if err != nil {
			return nil, fmt.Errorf("query favorites: %w", err)
		}
		for _, member := range members {
			v, err := strconv.Atoi(member)
			if err != nil {
				return nil, fmt.Errorf("query favorites: bad index member %q: %w", member, err)
			}
			ids = append(ids, v)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, v := range ids {
			cmds[i] = pipe.HGetAll(ctx, redisKey(v))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}

	out := make([]movie.Movie, 0, len(ids))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			return nil, fmt.Errorf("query favorite %d: %w", ids[i], err)
		}
		rating, _ := strconv.ParseFloat(fields["vote_average"], 64)
		out = append(out, movie.Movie{
			ID:            ids[i],
			OriginalTitle: fields["original_title"],
			Title:         fields["title"],
			PosterPath:    fields["poster_path"],
			BackdropPath:  fields["backdrop_path"],
			Overview:      fields["overview"],
			Rating:        rating,
			ReleaseDate:   fields["release_date"],
		})
	}
	return out, nil
}

// Exists reports whether id is in the index.
func (s *RedisStore) Exists(ctx context.Context, id int) (bool, error) {
	_, err := s.client.ZScore(ctx, redisIndexKey, strconv.Itoa(id)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check favorite %d: %w", id, err)
	}
	return true, nil
}
