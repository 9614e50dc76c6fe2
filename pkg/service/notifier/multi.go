package notifier

import (
	"context"
	"errors"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/m-mizutani/goerr/v2"
)

// Multi shows a notification on every surface and joins the errors.
type Multi []interfaces.Notifier

func (x Multi) Show(ctx context.Context, n notification.Notification) error {
	var errList []error
	for _, notifier := range x {
		if err := notifier.Show(ctx, n); err != nil {
			errList = append(errList, err)
		}
	}
	if len(errList) > 0 {
		return goerr.Wrap(errors.Join(errList...), "failed to show on some surfaces", goerr.T(errs.TagPresentation))
	}
	return nil
}
