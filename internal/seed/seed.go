// Package seed fills a database with the sample campus: a fixed set of
// accounts, posts and comments, plus optional generated filler posts.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"campusconnect/internal/domain"
	"campusconnect/pkg/utils"
)

type account struct {
	name, email, password, department string
	role                              domain.Role
	year                              int
}

var accounts = []account{
	{"Admin User", "admin@college.edu", "admin123", "Administration", domain.RoleAdmin, 0},
	{"Dr. Sarah Johnson", "sarah.johnson@college.edu", "faculty123", "Computer Science", domain.RoleFaculty, 0},
	{"John Doe", "john.doe@college.edu", "student123", "Computer Science", domain.RoleStudent, 3},
	{"Jane Smith", "jane.smith@college.edu", "student123", "Electronics", domain.RoleStudent, 2},
	{"Mike Wilson", "mike.wilson@college.edu", "student123", "Computer Science", domain.RoleStudent, 4},
}

type samplePost struct {
	title, content, category string
	section                  domain.Section
	tags                     []string
	pinned                   bool
	author                   int // accounts 下标，-1 表示无作者
}

var samplePosts = []samplePost{
	{"Important: Mid-Semester Exam Schedule Released",
		"The mid-semester examination schedule has been released. Please check your respective department notice boards and the college website for detailed timetables. Exams will commence from November 20th, 2025.",
		"Exams", domain.SectionOfficial, []string{"exams", "schedule", "important"}, true, 0},
	{"Campus Placement Drive - Tech Giants",
		"Multiple tech companies including Google, Microsoft, and Amazon will be conducting placement drives on campus next month. Eligible students are requested to register through the placement portal.",
		"Placements", domain.SectionOfficial, []string{"placements", "jobs", "tech"}, true, 1},
	{"Annual Tech Fest - Registration Open",
		`Our annual tech fest "TechNova 2025" is scheduled for December. Registration is now open for various technical and non-technical events. Win exciting prizes!`,
		"Events", domain.SectionOfficial, []string{"fest", "events", "techfest"}, false, 0},
	{"Data Structures Assignment Help",
		"Can someone explain the concept of Red-Black Trees? I'm stuck on the assignment and the lecture notes are not very clear.",
		"Academics", domain.SectionStudent, []string{"help", "data-structures", "assignment"}, false, 2},
	{"Lost: Blue Water Bottle",
		"Lost my blue Cello water bottle near the library yesterday. It has my name written on it. Please contact if found.",
		"Lost & Found", domain.SectionStudent, []string{"lost", "library"}, false, 3},
	{"Coding Club Meeting This Saturday",
		"Coding Club is organizing a workshop on Web Development this Saturday at 10 AM in Lab 3. All are welcome! Topics: React, Node.js, and MongoDB.",
		"Clubs", domain.SectionStudent, []string{"coding-club", "workshop", "web-dev"}, false, 4},
	{"Is the food quality in the canteen getting worse?",
		"Just wanted to share that the food quality in the main canteen has significantly decreased over the past few weeks. Anyone else noticed this?",
		"General", domain.SectionAnonymous, []string{"canteen", "food"}, false, -1},
	{"Feeling stressed about placements",
		"With placement season approaching, I'm feeling extremely anxious. The competition is tough and I'm not sure if I'm prepared enough. How are you all coping?",
		"General", domain.SectionAnonymous, []string{"mental-health", "placements", "stress"}, false, -1},
}

type sampleComment struct {
	post, author int // author -1 表示匿名
	content      string
}

var sampleComments = []sampleComment{
	{0, 2, "Thanks for sharing! This is really helpful."},
	{0, 3, "Will there be any changes in the exam pattern this year?"},
	{3, 4, "I can help you with Red-Black Trees. Let me know when you're free."},
	{6, -1, "Same here! The canteen quality needs serious improvement."},
}

// Store is the slice of the repositories the seeder writes through, so that
// counters and ids follow the same rules as the API.
type Store struct {
	Users    domain.UserRepository
	Posts    domain.PostRepository
	Comments domain.CommentRepository
}

type Options struct {
	Fake     int   // 额外生成的随机帖子数
	FakeSeed int64 // 0 表示每次随机
}

type Result struct {
	Users, Posts, Comments int
}

type Seeder struct {
	st  Store
	log *zap.Logger
}

func New(st Store, log *zap.Logger) *Seeder { return &Seeder{st: st, log: log.Named("seed")} }

// Run is idempotent for the fixed set: existing accounts are reused and the
// sample posts are only written into an empty forum. Fake posts are always added.
func (s *Seeder) Run(ctx context.Context, opt Options) (*Result, error) {
	res := &Result{}
	users, err := s.ensureAccounts(ctx, res)
	if err != nil {
		return nil, err
	}

	live, err := s.st.Posts.CountLive(ctx)
	if err != nil {
		return nil, err
	}
	if live == 0 {
		if err := s.samples(ctx, users, res); err != nil {
			return nil, err
		}
	} else {
		s.log.Info("forum not empty, skipping sample posts", zap.Int64("posts", live))
	}

	if opt.Fake > 0 {
		if err := s.fake(ctx, users, opt, res); err != nil {
			return nil, err
		}
	}
	s.log.Info("seed done", zap.Int("users", res.Users), zap.Int("posts", res.Posts), zap.Int("comments", res.Comments))
	return res, nil
}

func (s *Seeder) ensureAccounts(ctx context.Context, res *Result) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(accounts))
	for _, a := range accounts {
		u, err := s.st.Users.FindByEmail(ctx, a.email)
		if err == nil {
			out = append(out, u)
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		hash, err := utils.HashPassword(a.password)
		if err != nil {
			return nil, err
		}
		u = &domain.User{
			Name: a.name, Email: a.email, PasswordHash: hash,
			Role: a.role, Department: a.department, IsActive: true,
		}
		if a.year > 0 {
			y := a.year
			u.Year = &y
		}
		if err := s.st.Users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create %s: %w", a.email, err)
		}
		res.Users++
		out = append(out, u)
	}
	return out, nil
}

func tagsOf(in []string) []domain.PostTag {
	out := make([]domain.PostTag, 0, len(in))
	for _, t := range in {
		out = append(out, domain.PostTag{Tag: t})
	}
	return out
}

func (s *Seeder) samples(ctx context.Context, users []*domain.User, res *Result) error {
	posts := make([]*domain.Post, len(samplePosts))
	for i, sp := range samplePosts {
		p := &domain.Post{
			Title:       sp.title,
			Content:     sp.content,
			Section:     sp.section,
			Category:    sp.category,
			IsAnonymous: sp.section == domain.SectionAnonymous,
			IsPinned:    sp.pinned,
			Tags:        tagsOf(sp.tags),
		}
		if sp.author >= 0 {
			p.AuthorID = &users[sp.author].ID
		}
		if err := s.st.Posts.Create(ctx, p); err != nil {
			return fmt.Errorf("create post %q: %w", sp.title, err)
		}
		posts[i] = p
		res.Posts++
	}
	for _, sc := range sampleComments {
		c := &domain.Comment{PostID: posts[sc.post].ID, Content: sc.content}
		if sc.author >= 0 {
			c.AuthorID = &users[sc.author].ID
		} else {
			c.IsAnonymous = true
		}
		if err := s.st.Comments.Create(ctx, c); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		res.Comments++
	}
	return nil
}

func (s *Seeder) fake(ctx context.Context, users []*domain.User, opt Options, res *Result) error {
	f := gofakeit.New(opt.FakeSeed)
	students := make([]*domain.User, 0, len(users))
	for _, u := range users {
		if u.Role == domain.RoleStudent {
			students = append(students, u)
		}
	}
	for i := 0; i < opt.Fake; i++ {
		section := domain.SectionStudent
		if f.Number(1, 4) == 1 {
			section = domain.SectionAnonymous
		}
		p := &domain.Post{
			Title:       strings.TrimSuffix(f.Sentence(f.Number(4, 9)), "."),
			Content:     f.Paragraph(f.Number(1, 3), f.Number(2, 5), 12, "\n\n"),
			Section:     section,
			Category:    f.RandomString(domain.Categories),
			IsAnonymous: section == domain.SectionAnonymous,
		}
		seen := map[string]bool{}
		for n := f.Number(0, 3); len(p.Tags) < n; {
			t := strings.ToLower(f.Word())
			if !seen[t] {
				seen[t] = true
				p.Tags = append(p.Tags, domain.PostTag{Tag: t})
			}
		}
		if !p.IsAnonymous && len(students) > 0 {
			p.AuthorID = &students[f.Number(0, len(students)-1)].ID
		}
		if err := s.st.Posts.Create(ctx, p); err != nil {
			return fmt.Errorf("create fake post: %w", err)
		}
		res.Posts++
	}
	return nil
}
