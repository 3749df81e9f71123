package config

// Default configuration values, applied before the config file is read.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"name":    "btopricer",
		"version": "0.1.0",

		"paths.duckdb_path":    "data/hdb.duckdb",
		"paths.model_dir":      "artifacts/model",
		"paths.metrics_path":   "artifacts/metrics.json",
		"paths.state_path":     ".btopricer/state.db",
		"paths.raw_table":      "raw_transactions",
		"paths.clean_table":    "clean_transactions",
		"paths.features_table": "features",

		"training.target":        "resale_price",
		"training.test_size":     0.2,
		"training.random_state":  42,
		"training.model_type":    "random_forest",
		"training.n_estimators":  200,
		"training.max_depth":     0,
		"training.discount_rate": 0.2,

		"api.host": "0.0.0.0",
		"api.port": 8000,

		"llm.provider":    "openai",
		"llm.model":       "gpt-4o-mini",
		"llm.max_tokens":  200,
		"llm.temperature": 0.2,

		"verbose": false,
	}
}
