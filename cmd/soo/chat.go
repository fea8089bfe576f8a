package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/service"
)

func (c *cli) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <category>",
		Short: "Talk with the coach about one goal (type 'exit' to leave)",
		Args:  cobra.ExactArgs(1),
		RunE: c.withStore(func(cmd *cobra.Command, args []string) error {
			id, err := parseCategory(args[0])
			if err != nil {
				return err
			}
			if _, ok := c.store.Goal(id); !ok {
				return service.ErrGoalNotFound
			}
			coach := service.NewCoachService(c.store, c.coach, nil)

			for _, m := range c.store.Chat(id) {
				c.printf("%s > %s\n", speaker(m.Role), m.Content)
			}
			c.printf("---- %s coach (type 'exit' to leave) ----\n", domain.CategoryOrDefault(id).Name)

			reader := bufio.NewReader(c.in)
			for {
				c.printf("You > ")
				text, err := reader.ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read input: %w", err)
				}
				eof := errors.Is(err, io.EOF)
				text = strings.TrimSpace(text)
				if strings.EqualFold(text, "exit") || strings.EqualFold(text, "quit") {
					return nil
				}
				if text != "" {
					reply, err := coach.SendGoalChat(cmd.Context(), id, text)
					if err != nil {
						return err
					}
					c.printf("Coach > %s\n", reply.CoachMessage.Content)
				}
				if eof {
					c.printf("\n")
					return nil
				}
			}
		}),
	}
}

func speaker(role string) string {
	if role == domain.ChatRoleCoach {
		return "Coach"
	}
	return "You"
}
