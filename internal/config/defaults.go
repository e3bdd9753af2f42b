package config

import (
	"github.com/dejikatsu/dejiryu/internal/constants"
)

// Stock consultation prompts, used when the config leaves variations unset.
// An explicitly empty list is kept empty so validation can reject it.
var defaultConsultationVariations = []string{
	"質問はないか？デジリューの診察時間だぞ。遠慮なく呼んでくれよな！",
	"困ったらデジリューがいる。相談室でみんなの知恵を借りていこうぜ！",
}

func applyDefaults(c *Config) {
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Asia/Tokyo"
	}

	if c.State.Path == "" {
		c.State.Path = constants.DefaultStatePath
	}

	if c.News.Query == "" {
		c.News.Query = "artificial intelligence"
	}
	if c.News.Language == "" {
		c.News.Language = "ja"
	}
	if c.News.PageSize == 0 {
		c.News.PageSize = 3
	}

	if c.Rotation.PeriodDays == 0 {
		c.Rotation.PeriodDays = 7
	}

	if c.Consultation.Variations == nil {
		c.Consultation.Variations = append([]string(nil), defaultConsultationVariations...)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}
