package bot

import (
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const verifyButtonPrefix = "verify_button_"

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case "setupverify":
			b.handleSetupVerify(s, i)
		case "upload":
			b.handleUploadLink(s, i)
		}
	case discordgo.InteractionMessageComponent:
		if roleID, ok := strings.CutPrefix(i.MessageComponentData().CustomID, verifyButtonPrefix); ok {
			b.handleVerifyButton(s, i, roleID)
		}
	}
}

// handleSetupVerify posts the verification embed with a button that
// grants the chosen role. Roles carrying administrator rights are
// refused so the button can never hand out admin.
func (b *Bot) handleSetupVerify(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		respondEphemeral(s, i, "このコマンドは管理者のみ実行できます。")
		return
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		respondEphemeral(s, i, "ロールが見つかりませんでした。")
		return
	}
	role := data.Options[0].RoleValue(s, i.GuildID)
	if role == nil {
		respondEphemeral(s, i, "ロールが見つかりませんでした。")
		return
	}
	if role.Permissions&discordgo.PermissionAdministrator != 0 {
		respondEphemeral(s, i, "管理者権限のあるロールは選択できません。")
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "認証",
				Description: "以下のボタンを押して認証してください。",
				Color:       0x00FF00,
			}},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "認証する",
						Style:    discordgo.SuccessButton,
						CustomID: verifyButtonPrefix + role.ID,
					},
				}},
			},
		},
	})
	if err != nil {
		log.Printf("setupverify response failed: %v", err)
	}
}

// handleUploadLink replies with the public upload page URL.
func (b *Bot) handleUploadLink(s *discordgo.Session, i *discordgo.InteractionCreate) {
	url := b.Config.PublicBase()
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "📤 ファイルアップロードはこちらからどうぞ:\n" + url,
		},
	})
	if err != nil {
		log.Printf("upload command response failed: %v", err)
	}
}

func (b *Bot) handleVerifyButton(s *discordgo.Session, i *discordgo.InteractionCreate, roleID string) {
	if i.Member == nil {
		return
	}
	if err := s.GuildMemberRoleAdd(i.GuildID, i.Member.User.ID, roleID); err != nil {
		respondEphemeral(s, i, "ロールが見つかりませんでした。")
		return
	}
	respondEphemeral(s, i, "認証されました！")
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("interaction response failed: %v", err)
	}
}
