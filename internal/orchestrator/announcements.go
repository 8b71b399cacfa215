package orchestrator

import (
	"fmt"
	"time"
)

// The opening announcement deliberately starts with the month marker so the
// next run's history segmentation cuts at it.

func openingAnnouncement(days int) string {
	return fmt.Sprintf("Welcome to a new month of our interactive story! 📖✨ "+
		"This month's tale is yet unwritten, and it's up to you to shape its journey. "+
		"For the next %d days, your comments will help determine the plot twists and turns. "+
		"Let's embark on this adventure together! 🚀 #CollectiveLore", days)
}

func closingAnnouncement(month time.Month) string {
	return fmt.Sprintf("And so concludes our story for %s. 🏁✨ "+
		"Thank you all for your incredible contributions and engagement throughout the month. "+
		"Stay tuned for next month's adventure! 📚🚀 #CollectiveLore", month)
}
