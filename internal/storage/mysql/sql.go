package mysql

const createReviewsSQL = "CREATE TABLE IF NOT EXISTS reviews (\n" +
	"  id         BIGINT       NOT NULL PRIMARY KEY,\n" +
	"  market_id  BIGINT       NOT NULL,\n" +
	"  user_id    BIGINT       NOT NULL,\n" +
	"  login      VARCHAR(64)  NULL,\n" +
	"  rating     TINYINT      NOT NULL,\n" +
	"  `text`     TEXT         NOT NULL,\n" +
	"  created_at DATETIME     NOT NULL,\n" +
	"  KEY idx_reviews_market (market_id, created_at, id)\n" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"

const createMetaSQL = `
CREATE TABLE IF NOT EXISTS review_meta (
  id      TINYINT NOT NULL PRIMARY KEY,
  next_id BIGINT  NOT NULL
) ENGINE=InnoDB
`

const deleteReviewsSQL = `DELETE FROM reviews`

// Note: `text` is reserved; keep it quoted everywhere.
const insertReviewsPrefix = "INSERT INTO reviews\n  (id, market_id, user_id, login, rating, `text`, created_at)\nVALUES "

const upsertMetaSQL = `
INSERT INTO review_meta (id, next_id)
VALUES (1, ?)
ON DUPLICATE KEY UPDATE next_id = VALUES(next_id)
`

const selectReviewsSQL = "SELECT id, market_id, user_id, login, rating, `text`, created_at\n" +
	"FROM reviews\nORDER BY id"

const selectMetaSQL = `SELECT next_id FROM review_meta WHERE id = 1`
