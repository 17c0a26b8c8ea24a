package ketoconnect

import (
	"time"

	"github.com/ketohub/crawler/limiter"
	"github.com/ketohub/crawler/spider"
	"golang.org/x/time/rate"
)

const (
	// 分类页, e.g. https://www.ketoconnect.net/desserts/
	categoryPattern = `^https://www\.ketoconnect\.net/\w+(-\w+)*/$`
	categoryScope   = `//div[@id="tve_editor"]//span[@class="tve_custom_font_size rft"]`

	// 菜谱页, e.g. https://www.ketoconnect.net/recipe/spicy-cilantro-dressing/
	recipePattern = `^https://www\.ketoconnect\.net/recipe/\w+(-\w+)*/$`
	recipeScope   = `//div[@class="tve_post tve_post_width_4"]`
)

// Site crawls the recipe index of ketoconnect.net. The first image on a
// recipe page is the site logo.
var Site = spider.NewSite(
	spider.WithName("ketoconnect"),
	spider.WithAllowedDomains("ketoconnect.net"),
	spider.WithStartURLs("https://www.ketoconnect.net/recipes/"),
	spider.WithRules(
		spider.Traverse("category", categoryPattern, categoryScope),
		spider.Terminal("recipe", recipePattern, recipeScope),
	),
	spider.WithImageLocator(spider.SecondImage),
	spider.WithDelay(time.Second),
	spider.WithLimit(limiter.Multi(
		rate.NewLimiter(limiter.Per(20, 60*time.Second), 20),
	)),
)
