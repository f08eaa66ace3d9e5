package catalog

// builtinModules 已上线的课程模块。课时标题是进度跟踪的关联键，改标题会丢进度。
var builtinModules = []Module{
	{
		ID:           1,
		Title:        "Earthquake Safety",
		Level:        "intermediate",
		Description:  "Learn drop, cover, and hold techniques, building evacuation, and post-earthquake safety measures.",
		Duration:     "2 hours",
		BaseEnrolled: 12300,
		Image:        "https://images.unsplash.com/photo-1510146754054-9721adcc29c5?auto=format&fit=crop&q=80&w=800",
		Category:     "Natural Disasters",
		Lessons: []Lesson{
			{ID: 101, Title: "Introduction to Earthquakes"},
			{ID: 102, Title: "Drop, Cover, and Hold On"},
			{ID: 103, Title: "Post-Quake Evacuation"},
		},
	},
	{
		ID:           2,
		Title:        "Flood Response",
		Level:        "beginner",
		Description:  "Understanding flood warnings, evacuation routes, and water safety protocols for different scenarios.",
		Duration:     "1 hours",
		BaseEnrolled: 8700,
		Image:        "https://images.unsplash.com/photo-1547683908-21aa53d93a04?auto=format&fit=crop&q=80&w=800",
		Category:     "Natural Disasters",
		Lessons: []Lesson{
			{ID: 201, Title: "Understanding Flood Alerts"},
			{ID: 202, Title: "Water Safety & Sanitation"},
		},
	},
	{
		ID:           3,
		Title:        "Fire Safety",
		Level:        "advanced",
		Description:  "Fire extinguisher usage, evacuation procedures, and smoke safety in buildings.",
		Duration:     "3 hours",
		BaseEnrolled: 15100,
		Image:        "https://images.unsplash.com/photo-1516533037048-ad541e84f995?auto=format&fit=crop&q=80&w=800",
		Category:     "Emergency Response",
		Lessons: []Lesson{
			{ID: 301, Title: "The Fire Triangle"},
			{ID: 302, Title: "Fire Extinguisher P.A.S.S."},
		},
	},
}
