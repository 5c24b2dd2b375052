package sqlinline

const QInsertGeneration = `--sql 468252c2-b89a-4d2f-ac34-8586054a868d
insert into generations(id, user_id, kind, status, request_json, created_at, updated_at)
values (
  $1::uuid,
  nullif($2::text, '')::uuid,
  $3::text,
  'QUEUED',
  $4::jsonb,
  now(),
  now()
);
`

const QPatchGenerationStatus = `--sql 17cc7c69-2f48-476a-b0c3-87dc6cfbbc3b
update generations
set status = $2::text,
    result_json = coalesce($3::jsonb, result_json),
    updated_at = now()
where id = $1::uuid;
`

const QSelectGenerationByID = `--sql b65b840a-bfcb-4eee-a239-d08e0558b183
select id, coalesce(user_id::text, ''), kind, status, request_json, result_json, created_at, updated_at
from generations
where id = $1::uuid
limit 1;
`

const QListGenerationsByUser = `--sql 049f620e-a362-43d0-99c1-efe17118fb32
select id, coalesce(user_id::text, ''), kind, status, request_json, result_json, created_at, updated_at
from generations
where user_id = $1::uuid
order by created_at desc
limit $2::int offset $3::int;
`

const QClaimGeneration = `--sql dc1da425-893e-49f0-af5a-ba746ab29e56
with next_generation as (
    select id
    from generations
    where status = 'QUEUED'
    order by created_at asc
    for update skip locked
    limit 1
),
claimed as (
    update generations
    set status = 'RUNNING', updated_at = now()
    where id in (select id from next_generation)
    returning id, coalesce(user_id::text, ''), kind, status, request_json, created_at, updated_at
)
select * from claimed;
`

const QRequeueStaleGenerations = `--sql 87de62b9-ee0d-4ab1-b72e-2647380e1ba3
update generations
set status = 'QUEUED', updated_at = now()
where status = 'RUNNING'
  and updated_at < now() - ($1::int * interval '1 second')
returning id;
`
