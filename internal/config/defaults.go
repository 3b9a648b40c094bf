package config

// ApplyDefaults sets default values for any zero values in cfg.
// The matching weights default to the established scoring formulas:
// 0.6/0.3/0.05 for matching, 0.7/0.3 for complementary and mentor policies.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/osusume/data/db/platform.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/osusume/data/indices/bleve"
	}
	if cfg.Recommend.DefaultLimit == 0 {
		cfg.Recommend.DefaultLimit = 5
	}
	if cfg.Recommend.MaxLimit == 0 {
		cfg.Recommend.MaxLimit = 50
	}
	if cfg.Recommend.CandidatePoolSize == 0 {
		cfg.Recommend.CandidatePoolSize = 10
	}
	if cfg.Matching.SkillWeight == 0 {
		cfg.Matching.SkillWeight = 0.6
	}
	if cfg.Matching.InterestWeight == 0 {
		cfg.Matching.InterestWeight = 0.3
	}
	if cfg.Matching.ComplementaryBonus == 0 {
		cfg.Matching.ComplementaryBonus = 0.05
	}
	if cfg.Matching.ComplementaryWeight == 0 {
		cfg.Matching.ComplementaryWeight = 0.7
	}
	if cfg.Matching.CommonWeight == 0 {
		cfg.Matching.CommonWeight = 0.3
	}
	if cfg.Matching.MentorSkillWeight == 0 {
		cfg.Matching.MentorSkillWeight = 0.7
	}
	if cfg.Matching.MentorInterestWeight == 0 {
		cfg.Matching.MentorInterestWeight = 0.3
	}
	if cfg.Matching.MatchLimit == 0 {
		cfg.Matching.MatchLimit = 10
	}
	if cfg.Matching.MentorLimit == 0 {
		cfg.Matching.MentorLimit = 5
	}
	if cfg.Seed.Extensions == nil {
		cfg.Seed.Extensions = []string{".json", ".yaml", ".yml"}
	}
}
