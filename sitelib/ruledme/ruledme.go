package ruledme

import (
	"time"

	"github.com/ketohub/crawler/limiter"
	"github.com/ketohub/crawler/spider"
	"golang.org/x/time/rate"
)

// Site crawls the keto recipe categories of ruled.me.
var Site = spider.NewSite(
	spider.WithName("ruled-me"),
	spider.WithAllowedDomains("ruled.me"),
	spider.WithStartURLs("https://www.ruled.me/keto-recipes/"),
	spider.WithRules(
		// e.g. https://www.ruled.me/keto-recipes/breakfast/
		spider.Traverse("category",
			`^https://www\.ruled\.me/keto-recipes/\w+(-\w+)*/$`,
			`//div[@class="r-list"]`),
		// e.g. https://www.ruled.me/keto-recipes/dinner/page/2/
		spider.Traverse("category-page",
			`^https://www\.ruled\.me/keto-recipes/\w+(-\w+)*/page/\d+/$`,
			""),
		// e.g. https://www.ruled.me/easy-keto-cordon-bleu/
		spider.Terminal("recipe",
			`^https://www\.ruled\.me/(\w+-)+\w+/$`,
			`//div[@id="content"]`),
	),
	spider.WithImageLocator(spider.FirstImage),
	spider.WithDelay(time.Second),
	spider.WithLimit(limiter.Multi(
		rate.NewLimiter(limiter.Per(20, 60*time.Second), 20),
	)),
)
