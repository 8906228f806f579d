package main

import (
	"context"
	"time"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/school"
)

func (cli *commandLine) addCourse(name, code string, years int) error {
	ctx := context.Background()
	name = core.CleanString(name)
	code = core.CleanString(code, true /* lower */)

	if err := cli.schRepo.CheckCourseCodeUniqueness(ctx, code); err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err := cli.schRepo.CreateCourse(ctx, school.Course{
		Name:          name,
		Code:          code,
		DurationYears: years,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	return err
}
