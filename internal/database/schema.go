package database

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS ai_settings (
    setting_key VARCHAR(64) PRIMARY KEY,
    setting_value TEXT NOT NULL,
    setting_type VARCHAR(16) NOT NULL DEFAULT 'string',
    description TEXT,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`,

	`CREATE TABLE IF NOT EXISTS ai_usage (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT NOT NULL,
    usage_date DATE NOT NULL,
    requests_count INT NOT NULL DEFAULT 0,
    UNIQUE KEY uniq_user_date (user_id, usage_date)
)`,

	`CREATE TABLE IF NOT EXISTS premium_requests (
    user_id BIGINT PRIMARY KEY,
    requests_count INT NOT NULL DEFAULT 0,
    total_purchased INT NOT NULL DEFAULT 0,
    total_used INT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`,

	`CREATE TABLE IF NOT EXISTS donations (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT NOT NULL,
    amount_rub INT NOT NULL DEFAULT 0,
    amount_stars INT NOT NULL DEFAULT 0,
    payment_id VARCHAR(128) NOT NULL,
    message TEXT,
    email VARCHAR(255),
    payment_status VARCHAR(16) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    completed_at TIMESTAMP NULL,
    KEY idx_donations_payment (payment_id)
)`,

	`CREATE TABLE IF NOT EXISTS premium_purchases (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT NOT NULL,
    requests_count INT NOT NULL,
    amount_rub INT NOT NULL DEFAULT 0,
    amount_stars INT NOT NULL DEFAULT 0,
    payment_id VARCHAR(128) NOT NULL,
    payment_status VARCHAR(16) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    completed_at TIMESTAMP NULL,
    KEY idx_purchases_payment (payment_id)
)`,

	`CREATE TABLE IF NOT EXISTS bookmarks (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT NOT NULL,
    reference VARCHAR(128) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uniq_user_reference (user_id, reference)
)`,

	`CREATE TABLE IF NOT EXISTS star_transactions (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT NOT NULL,
    kind VARCHAR(32) NOT NULL,
    amount_stars INT NOT NULL,
    requests_count INT NOT NULL DEFAULT 0,
    charge_id VARCHAR(128) NOT NULL UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
}
