package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursehub/middleware"
	"coursehub/models"
	courseValidator "coursehub/validators/course"
)

type messageView struct {
	ID        uint                 `json:"id"`
	GroupID   uint                 `json:"group_id"`
	Content   string               `json:"content"`
	CreatedAt time.Time            `json:"created_at"`
	Sender    models.PublicProfile `json:"sender"`
}

func toMessageView(m models.Message, sender models.User) messageView {
	return messageView{
		ID:        m.ID,
		GroupID:   m.GroupID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Sender:    sender.Profile(),
	}
}

// memberGroup loads the course's group and checks the caller belongs to it.
// Course managers can read a group they are not a member of.
func (cc *CourseController) memberGroup(c *fiber.Ctx, allowManagers bool) (*models.StudyGroup, error) {
	courseID := paramID(c, "id")
	user := caller(c)

	var group models.StudyGroup
	if err := cc.db(c).Where("course_id = ?", courseID).First(&group).Error; err != nil {
		return nil, cc.lookupError(c, err, "Study group not found!")
	}

	var member models.GroupMember
	err := cc.db(c).Where("group_id = ? AND user_id = ?", group.ID, user.ID).First(&member).Error
	if err == nil {
		return &group, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cc.Resp.ServerError(c, "Failed to check membership!", err)
	}
	if allowManagers {
		if course, err := cc.findCourse(c, courseID); err == nil && middleware.Can(user, course, middleware.CapManageCourse) {
			return &group, nil
		}
	}
	return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not a member of this study group!", nil)
}

// PostMessage stores a message from a group member and returns it with the
// sender's public profile.
func (cc *CourseController) PostMessage(c *fiber.Ctx) error {
	group, err := cc.memberGroup(c, false)
	if group == nil {
		return err
	}
	user := caller(c)
	reqData := c.Locals("validatedMessage").(*courseValidator.PostMessageRequest)

	msg := models.Message{GroupID: group.ID, SenderID: user.ID, Content: reqData.Content}
	if err := cc.db(c).Create(&msg).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to send message!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Message sent successfully!", toMessageView(msg, *user))
}

// ListMessages pages through the group's messages, newest first.
func (cc *CourseController) ListMessages(c *fiber.Ctx) error {
	group, err := cc.memberGroup(c, true)
	if group == nil {
		return err
	}
	p := pagination(c)

	query := cc.db(c).Model(&models.Message{}).Where("group_id = ?", group.ID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch messages!", err)
	}

	var messages []models.Message
	if err := query.Preload("Sender").Order("created_at desc, id desc").Offset(p.Offset()).Limit(p.Limit).Find(&messages).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch messages!", err)
	}

	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		var sender models.User
		if m.Sender != nil {
			sender = *m.Sender
		}
		views = append(views, toMessageView(m, sender))
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Messages fetched successfully!", fiber.Map{
		"messages": views,
		"pagination": fiber.Map{
			"total": total,
			"page":  p.Page,
			"limit": p.Limit,
		},
	})
}

func (cc *CourseController) ListMembers(c *fiber.Ctx) error {
	group, err := cc.memberGroup(c, true)
	if group == nil {
		return err
	}

	var members []models.GroupMember
	if err := cc.db(c).Where("group_id = ?", group.ID).Preload("User").Order("created_at asc").Find(&members).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch members!", err)
	}

	type memberView struct {
		models.PublicProfile
		JoinedAt time.Time `json:"joined_at"`
	}
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		if m.User == nil {
			continue
		}
		views = append(views, memberView{PublicProfile: m.User.Profile(), JoinedAt: m.CreatedAt})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Members fetched successfully!", fiber.Map{
		"group":   group,
		"members": views,
	})
}
