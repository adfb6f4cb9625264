package sqlstore

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS api_quota_usage (
    date TEXT PRIMARY KEY,
    search_operations INTEGER NOT NULL DEFAULT 0,
    video_list_operations INTEGER NOT NULL DEFAULT 0,
    channel_list_operations INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS youtube_channels (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    subscriber_count INTEGER NOT NULL DEFAULT 0,
    video_count INTEGER NOT NULL DEFAULT 0,
    view_count INTEGER NOT NULL DEFAULT 0,
    thumbnail_url TEXT NOT NULL DEFAULT '',
    uploads_playlist_id TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS youtube_videos (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    channel_id TEXT NOT NULL,
    channel_title TEXT NOT NULL DEFAULT '',
    published_at DATETIME NOT NULL,
    view_count INTEGER NOT NULL DEFAULT 0,
    like_count INTEGER NOT NULL DEFAULT 0,
    comment_count INTEGER NOT NULL DEFAULT 0,
    engagement_rate REAL NOT NULL DEFAULT 0,
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    thumbnail_url TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_videos_channel_published ON youtube_videos(channel_id, published_at);
CREATE INDEX IF NOT EXISTS idx_videos_updated ON youtube_videos(updated_at);

CREATE TABLE IF NOT EXISTS video_analyses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id TEXT NOT NULL UNIQUE,
    youtube_url TEXT NOT NULL,
    summary TEXT NOT NULL,
    audio_url TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    result TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS api_quota_usage (
    date TEXT PRIMARY KEY,
    search_operations BIGINT NOT NULL DEFAULT 0,
    video_list_operations BIGINT NOT NULL DEFAULT 0,
    channel_list_operations BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS youtube_channels (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    subscriber_count BIGINT NOT NULL DEFAULT 0,
    video_count BIGINT NOT NULL DEFAULT 0,
    view_count BIGINT NOT NULL DEFAULT 0,
    thumbnail_url TEXT NOT NULL DEFAULT '',
    uploads_playlist_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS youtube_videos (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    channel_id TEXT NOT NULL,
    channel_title TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMPTZ NOT NULL,
    view_count BIGINT NOT NULL DEFAULT 0,
    like_count BIGINT NOT NULL DEFAULT 0,
    comment_count BIGINT NOT NULL DEFAULT 0,
    engagement_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
    duration_seconds BIGINT NOT NULL DEFAULT 0,
    thumbnail_url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_videos_channel_published ON youtube_videos(channel_id, published_at);
CREATE INDEX IF NOT EXISTS idx_videos_updated ON youtube_videos(updated_at);

CREATE TABLE IF NOT EXISTS video_analyses (
    id BIGSERIAL PRIMARY KEY,
    video_id TEXT NOT NULL UNIQUE,
    youtube_url TEXT NOT NULL,
    summary TEXT NOT NULL,
    audio_url TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    result TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
`
