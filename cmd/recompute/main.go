package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/yungbote/obe-achievement/internal/app"
	domainagg "github.com/yungbote/obe-achievement/internal/domain/aggregates"
	"github.com/yungbote/obe-achievement/internal/modules/achievement"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			*l = append(*l, p)
		}
	}
	return nil
}

func parseIDs(kind string, raw idList) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil || id == uuid.Nil {
			fmt.Printf("skipping invalid %s %q\n", kind, s)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup always happens.
func run(args []string) int {
	var sections, enrollments idList
	var dryRun bool
	fs := flag.NewFlagSet("recompute", flag.ContinueOnError)
	fs.Var(&sections, "section", "class_section_id to recompute (repeatable)")
	fs.Var(&enrollments, "enrollment", "enrollment_id to recompute (repeatable)")
	fs.BoolVar(&dryRun, "dry-run", false, "list the enrollments that would be recomputed without writing")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	sectionIDs := parseIDs("class_section_id", sections)
	enrollmentIDs := parseIDs("enrollment_id", enrollments)
	if len(sectionIDs) == 0 && len(enrollmentIDs) == 0 {
		fmt.Println("nothing to do: pass -section and/or -enrollment")
		return 2
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	dbc := dbctx.Context{Ctx: ctx}
	repos := application.Repos

	// Plan: section -> enrollments, preserving the order sections were named.
	var order []uuid.UUID
	plan := map[uuid.UUID][]uuid.UUID{}
	add := func(sectionID, enrollmentID uuid.UUID) {
		if _, ok := plan[sectionID]; !ok {
			order = append(order, sectionID)
		}
		plan[sectionID] = append(plan[sectionID], enrollmentID)
	}
	for _, sid := range sectionIDs {
		ids, err := repos.Enrollments.ListIDsByClassSectionID(dbc, sid)
		if err != nil {
			fmt.Printf("list enrollments for section %s: %v\n", sid, err)
			return 1
		}
		if len(ids) == 0 {
			fmt.Printf("section %s has no enrollments\n", sid)
			continue
		}
		for _, id := range ids {
			add(sid, id)
		}
	}
	for _, eid := range enrollmentIDs {
		en, err := repos.Enrollments.GetByID(dbc, eid)
		if err != nil {
			fmt.Printf("load enrollment %s: %v\n", eid, err)
			return 1
		}
		if en == nil {
			fmt.Printf("enrollment %s not found\n", eid)
			continue
		}
		add(en.ClassSectionID, en.ID)
	}

	if dryRun {
		for _, sid := range order {
			for _, eid := range plan[sid] {
				fmt.Printf("[dry-run] recompute class_section_id=%s enrollment_id=%s\n", sid, eid)
			}
		}
		return 0
	}

	engine := application.Services.Engine
	var total achievement.SectionReport
	for _, sid := range order {
		if ctx.Err() != nil {
			break
		}
		rep := engine.RecomputeEnrollments(ctx, sid, dedupe(plan[sid]))
		for _, st := range rep.Enrollments {
			if st.Status != achievement.UnitFailed {
				continue
			}
			hint := ""
			if domainagg.Retryable(st.Err) {
				hint = " (retryable)"
			}
			fmt.Printf("failed enrollment_id=%s: %s%s\n", st.EnrollmentID, st.Error, hint)
		}
		fmt.Printf("section %s: succeeded=%d failed=%d cancelled=%d\n", sid, rep.Succeeded, rep.Failed, rep.Cancelled)
		total.Succeeded += rep.Succeeded
		total.Failed += rep.Failed
		total.Cancelled += rep.Cancelled
	}

	fmt.Printf("done; succeeded=%d failed=%d cancelled=%d\n", total.Succeeded, total.Failed, total.Cancelled)
	if total.Failed > 0 || total.Cancelled > 0 {
		return 1
	}
	return 0
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
