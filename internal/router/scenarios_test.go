package router

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/stackpilot/internal/stack"
	"github.com/imamik/stackpilot/internal/template"
)

func collect(ch <-chan Fragment) []StepResult {
	var out []StepResult
	for f := range ch {
		if f.Result != nil {
			out = append(out, *f.Result)
		}
	}
	Expect(ch).To(BeClosed())
	return out
}

var _ = Describe("Deployment lifecycle", func() {
	var (
		ctx     context.Context
		backend *stack.MockBackend
		router  *Router
		state   stack.State
	)

	BeforeEach(func() {
		ctx = context.Background()
		state = stack.StateCreateInProgress
		backend = &stack.MockBackend{
			SubmitFunc: func(_ context.Context, in stack.SubmitInput) (*stack.SubmitOutput, error) {
				return &stack.SubmitOutput{ID: "arn:stack/" + in.Name + "/1"}, nil
			},
			DescribeFunc: func(_ context.Context, name string) (*stack.Description, error) {
				if name != "web" {
					return nil, &stack.NotFoundError{Name: name}
				}
				return &stack.Description{Name: name, ID: "arn:stack/web/1", State: state}, nil
			},
		}
		router = New(stack.NewProvisioner(backend), WithRole(RoleProvisioning))
	})

	Context("when a valid template is deployed", func() {
		It("acknowledges the submission without waiting for completion", func() {
			res := collect(router.Run(ctx, Request{Action: ActionDeploy, StackName: "web", Template: validTemplate}))

			Expect(res).To(HaveLen(2))
			Expect(res[1].Success).To(BeTrue())
			Expect(res[1].State).To(Equal("CREATE_IN_PROGRESS"))
			Expect(res[1].StackID).To(Equal("arn:stack/web/1"))
			Expect(backend.Calls("Submit")).To(Equal(1))
			Expect(backend.Calls("Describe")).To(BeZero())
		})

		It("reports progress to a caller that polls status", func() {
			_ = collect(router.Run(ctx, Request{Action: ActionDeploy, StackName: "web", Template: validTemplate}))

			By("reading the in-progress state")
			res := collect(router.Run(ctx, Request{Action: ActionStatus, StackName: "web"}))
			Expect(res[0].State).To(Equal("CREATE_IN_PROGRESS"))

			By("reading the terminal state once the backend finishes")
			state = stack.StateCreateComplete
			res = collect(router.Run(ctx, Request{Action: ActionStatus, StackName: "web"}))
			Expect(res[0].State).To(Equal("CREATE_COMPLETE"))
			Expect(stack.State(res[0].State).IsTerminal()).To(BeTrue())
		})

		It("returns the same answer for repeated status reads", func() {
			first := collect(router.Run(ctx, Request{Action: ActionStatus, StackName: "web"}))
			second := collect(router.Run(ctx, Request{Action: ActionStatus, StackName: "web"}))
			Expect(second).To(Equal(first))
		})
	})

	Context("when the template is invalid", func() {
		It("never calls the backend", func() {
			res := collect(router.Run(ctx, Request{Action: ActionDeploy, StackName: "web", Template: "Resources: []"}))

			Expect(res).To(HaveLen(2))
			Expect(res[0].Errors).To(ConsistOf(template.MsgResourcesNotMapping, template.MsgResourcesEmpty))
			Expect(res[1].Success).To(BeFalse())
			Expect(backend.Calls("Submit")).To(BeZero())
		})

		It("never calls the backend when Resources is missing", func() {
			res := collect(router.Run(ctx, Request{
				Action:    ActionDeploy,
				StackName: "web",
				Template:  "AWSTemplateFormatVersion: '2010-09-09'\nDescription: no resources\n",
			}))

			Expect(res).To(HaveLen(2))
			Expect(res[0].Errors).To(ConsistOf(template.MsgMissingResources))
			Expect(res[1].Step).To(Equal(StepDeploy))
			Expect(res[1].Success).To(BeFalse())
			Expect(backend.Calls("Submit")).To(BeZero())
		})
	})

	Context("when a request carries only a prompt", func() {
		It("deploys a fenced template to the named stack", func() {
			res := collect(router.Run(ctx, Request{
				StackName: "web",
				Prompt:    "please deploy:\n```yaml\n" + validTemplate + "```\n",
			}))

			Expect(res).To(HaveLen(2))
			Expect(res[1].Step).To(Equal(StepDeploy))
			Expect(res[1].Success).To(BeTrue())
			Expect(backend.Calls("Submit")).To(Equal(1))
		})

		It("validates a prompt that names no stack", func() {
			res := collect(router.Run(ctx, Request{Prompt: "```yaml\n" + validTemplate + "```"}))

			Expect(res).To(HaveLen(1))
			Expect(res[0].Step).To(Equal(StepValidate))
			Expect(res[0].Success).To(BeTrue())
			Expect(backend.Calls("Submit")).To(BeZero())
		})
	})

	Context("when the stack does not exist", func() {
		It("reports not found for status and events", func() {
			res := collect(router.Run(ctx, Request{Action: ActionStatus, StackName: "nope"}))
			Expect(res[0].Success).To(BeFalse())
			Expect(res[0].Error).To(ContainSubstring("does not exist"))

			backend.DescribeEventsFunc = func(_ context.Context, name string, _ int) ([]stack.Event, error) {
				return nil, &stack.NotFoundError{Name: name}
			}
			res = collect(router.Run(ctx, Request{Action: ActionEvents, StackName: "nope"}))
			Expect(res[0].Success).To(BeFalse())
		})
	})
})
